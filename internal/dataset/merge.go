package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// Default survey file names, relative to the input directory
const (
	DemographicFile   = "demographic.csv"
	DietFile          = "diet.csv"
	ExaminationFile   = "examination.csv"
	LabsFile          = "labs.csv"
	MedicationsFile   = "medications.csv"
	FoodMacrosFile    = "detailed_meals_macros_CLEANED.csv"
	FoodNutritionFile = "Food_and_Nutrition__.csv"

	NHANESMasterFile    = "nhanes_master_dataset.csv"
	CustomNutritionFile = "custom_nutrition_dataset.csv"
)

// NHANESInputs are the survey tables joined on the participant id SEQN
type NHANESInputs struct {
	Demographic string
	Diet        string
	Examination string
	Labs        string
	Medications string
}

// DefaultNHANESInputs uses the default file names in dir
func DefaultNHANESInputs(dir string) NHANESInputs {
	return NHANESInputs{
		Demographic: filepath.Join(dir, DemographicFile),
		Diet:        filepath.Join(dir, DietFile),
		Examination: filepath.Join(dir, ExaminationFile),
		Labs:        filepath.Join(dir, LabsFile),
		Medications: filepath.Join(dir, MedicationsFile),
	}
}

// Merger builds the training datasets with an in-memory DuckDB
type Merger struct {
	db  *sql.DB
	log *slog.Logger
}

// NewMerger opens an in-memory DuckDB
func NewMerger(logger *slog.Logger) (*Merger, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &Merger{db: db, log: logger}, nil
}

// Close closes the database connection
func (m *Merger) Close() error {
	return m.db.Close()
}

// MergeNHANES inner-joins demographics, diet, examination and labs on SEQN,
// left-joins medications, and writes the result as CSV to out. Participants
// missing from any inner table are dropped; those without medications keep
// empty medication columns.
// Non-key columns present in more than one table keep DuckDB naming: the
// first keeps its name and later copies get a numeric suffix (WTINT,
// WTINT_1), not the _x/_y suffixes a pandas merge would produce.
func (m *Merger) MergeNHANES(ctx context.Context, in NHANESInputs, out string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT *
		FROM %s AS demographic
		JOIN %s AS diet USING (SEQN)
		JOIN %s AS examination USING (SEQN)
		JOIN %s AS labs USING (SEQN)
		LEFT JOIN %s AS medications USING (SEQN)`,
		readCSV(in.Demographic, ""),
		readCSV(in.Diet, ""),
		readCSV(in.Examination, ""),
		readCSV(in.Labs, ""),
		readCSV(in.Medications, "latin-1"),
	)
	return m.export(ctx, "nhanes", query, out)
}

// MergeCustomNutrition stacks the food tables, matching columns by name.
// Columns missing from one table are empty in its rows.
func (m *Merger) MergeCustomNutrition(ctx context.Context, inputs []string, out string) (int64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("no nutrition tables to merge")
	}
	parts := make([]string, len(inputs))
	for i, path := range inputs {
		parts[i] = "SELECT * FROM " + readCSV(path, "")
	}
	return m.export(ctx, "custom_nutrition", strings.Join(parts, "\nUNION ALL BY NAME\n"), out)
}

func (m *Merger) export(ctx context.Context, name, query, out string) (int64, error) {
	start := time.Now()
	m.log.Debug("Merging dataset", "dataset", name, "out", out)

	var rows int64
	if err := m.db.QueryRowContext(ctx, "SELECT count(*) FROM ("+query+")").Scan(&rows); err != nil {
		m.log.Error("DuckDB merge failed", "dataset", name, "error", err, "duration", time.Since(start))
		return 0, fmt.Errorf("merge %s failed: %w", name, err)
	}

	copyStmt := fmt.Sprintf("COPY (%s) TO %s (HEADER, DELIMITER ',')", query, quoteLiteral(out))
	if _, err := m.db.ExecContext(ctx, copyStmt); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", out, err)
	}

	m.log.Info("Dataset merged", "dataset", name, "rows", rows, "out", out, "duration", time.Since(start))
	return rows, nil
}

// readCSV renders a read_csv_auto call. COPY cannot take bound parameters,
// so paths are quoted as literals.
func readCSV(path, encoding string) string {
	if encoding == "" {
		return fmt.Sprintf("read_csv_auto(%s, header = true)", quoteLiteral(path))
	}
	return fmt.Sprintf("read_csv_auto(%s, header = true, encoding = %s)", quoteLiteral(path), quoteLiteral(encoding))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
