package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/types"
)

// Tool limits
const (
	defaultHealthyLimit = scanner.DefaultHealthyLimit
	maxHealthyLimit     = 50
)

// SearchFoodResponse represents the response from search_food
type SearchFoodResponse struct {
	Found bool                `json:"found"`
	Count int                 `json:"count"`
	Foods []types.FoodSummary `json:"foods"`
}

// HealthyFoodsResponse represents the response from top_healthy_foods
type HealthyFoodsResponse struct {
	Category string             `json:"category,omitempty"`
	Count    int                `json:"count"`
	Foods    []types.FoodRecord `json:"foods"`
}

// CategoriesResponse represents the response from list_categories
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func (s *Server) addTools() {
	searchTool := mcp.NewTool("search_food",
		mcp.WithDescription("Search the food database by name. Matches any food whose name contains the query, ignoring case, and returns at most 10 foods."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for in food names, for example \"chicken\""),
		),
		mcp.WithOutputSchema[SearchFoodResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchFood)

	analyzeTool := mcp.NewTool("analyze_food",
		mcp.WithDescription("Predict the disease-risk class of a food and score its nutritional profile. Provide a food_name found in the database, nutritional_data, or both; a database match takes precedence."),
		mcp.WithString("food_name",
			mcp.Description("Name of a food in the database, matched exactly ignoring case"),
		),
		mcp.WithObject("nutritional_data",
			mcp.Description("Nutritional attributes keyed like the database columns: Food_Category, Calories_per_100g, Protein_per_100g, Carbs_per_100g, Fat_per_100g, Fiber_per_100g, Sugar_per_100g, Sodium_per_100g, Processing_Level, Nutritional_Density, Glycemic_Index, Additives_Count"),
		),
		mcp.WithOutputSchema[types.AnalysisResult](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(analyzeTool, s.handleAnalyzeFood)

	healthyTool := mcp.NewTool("top_healthy_foods",
		mcp.WithDescription("List the healthiest foods by nutritional density (highest first), then processing level (lowest first), optionally within one category."),
		mcp.WithString("category",
			mcp.Description("Food category to rank within; omit to rank every food"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (default: %d, max: %d)", defaultHealthyLimit, maxHealthyLimit)),
			mcp.DefaultNumber(defaultHealthyLimit),
			mcp.Min(1),
			mcp.Max(maxHealthyLimit),
		),
		mcp.WithOutputSchema[HealthyFoodsResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(healthyTool, s.handleTopHealthyFoods)

	categoriesTool := mcp.NewTool("list_categories",
		mcp.WithDescription("List the food categories present in the database"),
		mcp.WithOutputSchema[CategoriesResponse](),
		mcp.WithIdempotentHintAnnotation(true),
	)
	s.mcpServer.AddTool(categoriesTool, s.handleListCategories)
}

// structuredResult returns both structured content and a JSON text fallback
func (s *Server) structuredResult(tool string, response any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		s.log.Error("Failed to marshal tool response", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal response: %v", err)), nil
	}

	s.log.Debug("Returning structured result", "tool", tool, "response_size", len(responseJSON))
	return mcp.NewToolResultStructured(response, string(responseJSON)), nil
}

func (s *Server) handleSearchFood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleSearchFood: Starting tool call", "arguments", request.GetArguments())

	query, err := request.RequireString("query")
	if err != nil {
		s.log.Warn("handleSearchFood: Missing 'query' parameter", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Missing required parameter 'query': %v", err)), nil
	}

	records, err := s.scanner.Search(query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	foods := make([]types.FoodSummary, 0, len(records))
	for i := range records {
		foods = append(foods, records[i].ToSummary())
	}

	return s.structuredResult("search_food", SearchFoodResponse{
		Found: len(foods) > 0,
		Count: len(foods),
		Foods: foods,
	})
}

func (s *Server) handleAnalyzeFood(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleAnalyzeFood: Starting tool call", "arguments", request.GetArguments())

	name := request.GetString("food_name", "")

	var data *types.FoodRecord
	if raw, ok := request.GetArguments()["nutritional_data"]; ok && raw != nil {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid 'nutritional_data': %v", err)), nil
		}
		data, err = types.ParseNutritionalData(encoded)
		if err != nil {
			s.log.Warn("handleAnalyzeFood: Invalid 'nutritional_data'", "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result, err := s.scanner.AnalyzeFood(scanner.AnalyzeRequest{FoodName: name, Data: data})
	if err != nil {
		var unknown *model.UnknownCategoryError
		if errors.As(err, &unknown) {
			return mcp.NewToolResultError(fmt.Sprintf("%v (known categories are listed by list_categories)", err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	return s.structuredResult("analyze_food", result)
}

func (s *Server) handleTopHealthyFoods(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.log.Debug("handleTopHealthyFoods: Starting tool call", "arguments", request.GetArguments())

	category := request.GetString("category", "")
	limit := int(request.GetFloat("limit", defaultHealthyLimit))
	if limit <= 0 {
		limit = defaultHealthyLimit
	}
	if limit > maxHealthyLimit {
		limit = maxHealthyLimit
	}

	records, err := s.scanner.TopHealthy(category, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Ranking failed: %v", err)), nil
	}
	if records == nil {
		records = []types.FoodRecord{}
	}

	return s.structuredResult("top_healthy_foods", HealthyFoodsResponse{
		Category: category,
		Count:    len(records),
		Foods:    records,
	})
}

func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := s.scanner.Categories()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Listing categories failed: %v", err)), nil
	}

	return s.structuredResult("list_categories", CategoriesResponse{Categories: categories})
}
