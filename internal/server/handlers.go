package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/noot-app/food-risk-scanner/internal/labelreader"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/types"
)

// AnalyzeFoodRequest is the body of POST /api/analyze_food
type AnalyzeFoodRequest struct {
	FoodName        string          `json:"food_name"`
	NutritionalData json.RawMessage `json:"nutritional_data"`
}

func (s *Server) handleHome(c *gin.Context) {
	c.String(http.StatusOK, HomeMessage)
}

func (s *Server) handleHealth(c *gin.Context) {
	response := HealthResponse{
		Status:             "ok",
		Ready:              s.scanner.ModelLoaded(),
		ModelLoaded:        s.scanner.ModelLoaded(),
		DatabaseLoaded:     s.scanner.DatabaseLoaded(),
		LabelReaderEnabled: s.scanner.LabelReaderEnabled(),
	}

	status := http.StatusOK
	if !response.Ready {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

func (s *Server) handleSearchFood(c *gin.Context) {
	records, err := s.scanner.Search(c.Query("query"))
	if err != nil {
		s.sendScannerError(c, err)
		return
	}

	summaries := make([]types.FoodSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, records[i].ToSummary())
	}
	c.JSON(http.StatusOK, summaries)
}

func (s *Server) handleAnalyzeFood(c *gin.Context) {
	var req AnalyzeFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.sendError(c, http.StatusBadRequest, nil, "invalid JSON body")
		return
	}

	data, err := types.ParseNutritionalData(req.NutritionalData)
	if err != nil {
		s.sendError(c, http.StatusBadRequest, nil, err.Error())
		return
	}

	result, err := s.scanner.AnalyzeFood(scanner.AnalyzeRequest{FoodName: req.FoodName, Data: data})
	if err != nil {
		s.sendScannerError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.scanner.Categories()
	if err != nil {
		s.sendScannerError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleHealthyFoods(c *gin.Context) {
	limit := scanner.DefaultHealthyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.sendError(c, http.StatusBadRequest, nil, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxQueryLimit)
	}

	records, err := s.scanner.TopHealthy(c.Query("category"), limit)
	if err != nil {
		s.sendScannerError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleAnalyzeLabel(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxLabelUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		s.sendError(c, http.StatusBadRequest, nil, "multipart field \"image\" is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		s.sendError(c, http.StatusBadRequest, err, "failed to read upload")
		return
	}
	defer file.Close()

	analysis, err := s.scanner.AnalyzeLabel(c.Request.Context(), file)
	if err != nil {
		s.sendScannerError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// sendScannerError maps scanner errors to HTTP statuses
func (s *Server) sendScannerError(c *gin.Context, err error) {
	var profileErr *types.ProfileError
	var unknownErr *model.UnknownCategoryError

	switch {
	case errors.Is(err, scanner.ErrNoDataProvided):
		s.sendError(c, http.StatusBadRequest, nil, "No nutritional data provided")
	case errors.As(err, &profileErr), errors.As(err, &unknownErr), errors.Is(err, labelreader.ErrInvalidImage):
		s.sendError(c, http.StatusBadRequest, nil, err.Error())
	case errors.Is(err, labelreader.ErrNoTextExtracted):
		s.sendError(c, http.StatusUnprocessableEntity, nil, err.Error())
	case errors.Is(err, scanner.ErrModelUnavailable),
		errors.Is(err, scanner.ErrDatabaseUnavailable),
		errors.Is(err, scanner.ErrLabelReaderUnavailable):
		s.sendError(c, http.StatusServiceUnavailable, nil, err.Error())
	default:
		s.log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		s.sendError(c, http.StatusInternalServerError, err, "internal error")
	}
}
