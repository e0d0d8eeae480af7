// Package cli is the interactive terminal front end of the scanner
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/types"
)

const rule = "=================================================="

// manualField is one prompt of the manual nutritional input
type manualField struct {
	name    string
	prompt  string
	def     float64
	integer bool
}

// manualFields lists the prompts in the order they are asked. Blank input
// takes the default.
var manualFields = []manualField{
	{types.FieldCalories, "Calories", 0, false},
	{types.FieldProtein, "Protein (g)", 0, false},
	{types.FieldCarbs, "Carbohydrates (g)", 0, false},
	{types.FieldFat, "Fat (g)", 0, false},
	{types.FieldFiber, "Fiber (g)", 0, false},
	{types.FieldSugar, "Sugar (g)", 0, false},
	{types.FieldSodium, "Sodium (mg)", 0, false},
	{types.FieldProcessingLevel, "Processing Level (1-10, 1=whole food, 10=highly processed)", 5, true},
	{types.FieldNutritionalDensity, "Nutritional Density (1-10, 10=most nutritious)", 5, true},
	{types.FieldGlycemicIndex, "Glycemic Index (0-100)", 50, true},
	{types.FieldAdditivesCount, "Number of additives", 0, true},
}

// Menu runs the numbered option loop over a line reader and a writer
type Menu struct {
	scanner *scanner.Scanner
	lines   *bufio.Scanner
	out     io.Writer
}

// NewMenu creates a menu reading answers from in and printing to out
func NewMenu(scn *scanner.Scanner, in io.Reader, out io.Writer) *Menu {
	return &Menu{
		scanner: scn,
		lines:   bufio.NewScanner(in),
		out:     out,
	}
}

// Run shows the menu until the user exits, input ends or ctx is cancelled
func (m *Menu) Run(ctx context.Context) error {
	m.printf("\n🍎 Food Label Analysis Tool\n%s\n", rule)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("\n📋 Options:\n")
		m.printf("1. Search food in database\n")
		m.printf("2. Analyze food by name\n")
		m.printf("3. Manual nutritional input\n")
		m.printf("4. View food categories\n")
		m.printf("5. Get healthy food recommendations\n")
		m.printf("6. Exit\n")

		choice, err := m.ask("\n🎯 Choose an option (1-6): ")
		if err != nil {
			return m.endOfInput(err)
		}

		switch choice {
		case "1":
			err = m.search()
		case "2":
			err = m.analyzeByName()
		case "3":
			err = m.manualInput()
		case "4":
			m.categories()
		case "5":
			err = m.healthyFoods()
		case "6":
			m.printf("👋 Goodbye!\n")
			return nil
		default:
			m.printf("❌ Invalid choice. Please try again.\n")
		}
		if err != nil {
			return m.endOfInput(err)
		}
	}
}

func (m *Menu) search() error {
	query, err := m.ask("🔍 Enter food name to search: ")
	if err != nil {
		return err
	}

	results, err := m.scanner.Search(query)
	if err != nil {
		m.printf("❌ %v\n", err)
		return nil
	}
	if len(results) == 0 {
		m.printf("❌ No results found\n")
		return nil
	}

	m.printf("\n📊 Found %d results:\n", len(results))
	m.table([]string{"Food_Name", "Food_Category", "Calories_per_100g", "Processing_Level", "Nutritional_Density"}, results,
		func(r types.FoodRecord) []string {
			return []string{
				r.FoodName,
				r.FoodCategory,
				formatValue(r.CaloriesPer100g),
				formatValue(r.ProcessingLevel),
				formatValue(r.NutritionalDensity),
			}
		})
	return nil
}

func (m *Menu) analyzeByName() error {
	name, err := m.ask("🍎 Enter exact food name: ")
	if err != nil {
		return err
	}
	m.analyze(scanner.AnalyzeRequest{FoodName: name})
	return nil
}

func (m *Menu) manualInput() error {
	m.printf("\n📝 Enter nutritional information (per 100g):\n")

	category, err := m.ask("Food Category (Whole Food/Whole Grain/Lean Protein/Dairy/Fast Food/Prepared Meal/Mixed): ")
	if err != nil {
		return err
	}

	record := &types.FoodRecord{NutritionalProfile: types.NutritionalProfile{FoodCategory: category}}
	for _, f := range manualFields {
		v, err := m.askNumber(f)
		if err != nil {
			return err
		}
		field, _ := record.Field(f.name)
		*field = types.Float(v)
	}

	if err := record.Validate(); err != nil {
		m.printf("❌ %v\n", err)
		return nil
	}
	m.analyze(scanner.AnalyzeRequest{Data: record})
	return nil
}

func (m *Menu) categories() {
	categories, err := m.scanner.Categories()
	if err != nil {
		m.printf("❌ %v\n", err)
		return
	}
	m.printf("\n📂 Available categories: %s\n", strings.Join(categories, ", "))
}

func (m *Menu) healthyFoods() error {
	category, err := m.ask("📂 Enter category (or press Enter for all): ")
	if err != nil {
		return err
	}

	foods, err := m.scanner.TopHealthy(category, scanner.DefaultHealthyLimit)
	if err != nil {
		m.printf("❌ %v\n", err)
		return nil
	}

	m.printf("\n🥗 Top healthy foods:\n")
	if len(foods) == 0 {
		m.printf("❌ No results found\n")
		return nil
	}
	m.table([]string{"Food_Name", "Food_Category", "Nutritional_Density", "Processing_Level"}, foods,
		func(r types.FoodRecord) []string {
			return []string{
				r.FoodName,
				r.FoodCategory,
				formatValue(r.NutritionalDensity),
				formatValue(r.ProcessingLevel),
			}
		})
	return nil
}

func (m *Menu) analyze(req scanner.AnalyzeRequest) {
	result, err := m.scanner.AnalyzeFood(req)
	if err != nil {
		m.printf("❌ %v\n", err)
		return
	}
	PrintAnalysis(m.out, result)
}

// PrintAnalysis writes an analysis result in the menu's report format
func PrintAnalysis(w io.Writer, result *types.AnalysisResult) {
	fmt.Fprintf(w, "\n🍎 Analysis for: %s\n%s\n", result.FoodName, rule)
	fmt.Fprintf(w, "🎯 Predicted Disease Risk: %s\n", result.PredictedDisease)
	fmt.Fprintf(w, "📈 Confidence: %s\n", percent(result.Confidence))

	fmt.Fprintf(w, "\n📊 All Risk Probabilities:\n")
	diseases := make([]string, 0, len(result.AllProbabilities))
	for disease := range result.AllProbabilities {
		diseases = append(diseases, disease)
	}
	sort.Strings(diseases)
	for _, disease := range diseases {
		fmt.Fprintf(w, "   %s: %s\n", disease, percent(result.AllProbabilities[disease]))
	}

	analysis := result.NutritionalAnalysis
	fmt.Fprintf(w, "\n🏥 Health Score: %d/100\n", analysis.HealthScore)

	if len(analysis.Concerns) > 0 {
		fmt.Fprintf(w, "\n⚠️  Concerns:\n")
		for _, concern := range analysis.Concerns {
			fmt.Fprintf(w, "   • %s\n", concern)
		}
	}

	if len(analysis.Recommendations) > 0 {
		fmt.Fprintf(w, "\n💡 Recommendations:\n")
		for _, rec := range analysis.Recommendations {
			fmt.Fprintf(w, "   • %s\n", rec)
		}
	}
}

func (m *Menu) ask(prompt string) (string, error) {
	m.printf("%s", prompt)
	if !m.lines.Scan() {
		if err := m.lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.lines.Text()), nil
}

// askNumber prompts until the answer is blank or a valid number
func (m *Menu) askNumber(f manualField) (float64, error) {
	for {
		answer, err := m.ask(f.prompt + ": ")
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return f.def, nil
		}

		v, err := strconv.ParseFloat(answer, 64)
		switch {
		case err != nil || math.IsNaN(v) || math.IsInf(v, 0):
			m.printf("❌ Please enter a number\n")
		case f.integer && v != math.Trunc(v):
			m.printf("❌ Please enter a whole number\n")
		default:
			return v, nil
		}
	}
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		m.printf("\n👋 Goodbye!\n")
		return nil
	}
	return err
}

func (m *Menu) table(header []string, records []types.FoodRecord, row func(types.FoodRecord) []string) {
	tw := tabwriter.NewWriter(m.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, r := range records {
		fmt.Fprintln(tw, strings.Join(row(r), "\t"))
	}
	tw.Flush()
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
