package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/noot-app/food-risk-scanner/internal/config"
	"github.com/noot-app/food-risk-scanner/internal/labelreader"
	"github.com/noot-app/food-risk-scanner/internal/model"
	"github.com/noot-app/food-risk-scanner/internal/query"
	"github.com/noot-app/food-risk-scanner/internal/scanner"
	"github.com/noot-app/food-risk-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServerOptions struct {
	noModel    bool
	noDatabase bool
	labelText  *string
	apiToken   string
}

func newTestServer(t *testing.T, opts testServerOptions) *Server {
	t.Helper()
	logger := config.NewTestLogger(&bytes.Buffer{}, "ERROR")

	var classifier *model.Classifier
	if !opts.noModel {
		classifier = model.NewSampleClassifier()
	}
	var db query.FoodDatabase
	if !opts.noDatabase {
		db = query.NewDatabase(query.SampleFoods())
	}
	var labels *labelreader.Reader
	if opts.labelText != nil {
		text := *opts.labelText
		labels = labelreader.NewReader(labelreader.ExtractorFunc(func(ctx context.Context, image []byte) (string, error) {
			return text, nil
		}), logger)
	}

	cfg := &config.Config{
		Environment:        "production",
		APIToken:           opts.apiToken,
		CORSAllowedOrigins: []string{"*"},
	}
	return New(cfg, scanner.New(classifier, db, labels, logger), logger)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serve(s, req)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response.Error
}

func TestServer_HandleHome(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	w := serve(s, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Food Scanner API is running!", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := serve(s, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	req := httptest.NewRequest("GET", "/api/categories", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(s, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_HandleHealth(t *testing.T) {
	tests := []struct {
		name           string
		opts           testServerOptions
		expectedStatus int
		expected       HealthResponse
	}{
		{
			name:           "everything loaded",
			opts:           testServerOptions{},
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "ok", Ready: true, ModelLoaded: true, DatabaseLoaded: true},
		},
		{
			name:           "database missing",
			opts:           testServerOptions{noDatabase: true},
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "ok", Ready: true, ModelLoaded: true},
		},
		{
			name:           "model missing",
			opts:           testServerOptions{noModel: true},
			expectedStatus: http.StatusServiceUnavailable,
			expected:       HealthResponse{Status: "degraded", DatabaseLoaded: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts)

			w := serve(s, httptest.NewRequest("GET", "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			var response HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.expected, response)
		})
	}
}

func TestServer_HandleSearchFood(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	w := serve(s, httptest.NewRequest("GET", "/api/search_food?query=chicken", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var results []types.FoodSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&results))
	require.Len(t, results, 3)
	assert.Equal(t, types.FoodSummary{FoodName: "Chicken Breast", FoodCategory: "Whole Food", CaloriesPer100g: 165}, results[0])
	assert.Equal(t, "Grilled Chicken", results[1].FoodName)
	assert.Equal(t, "Fried Chicken Nuggets", results[2].FoodName)
}

func TestServer_HandleSearchFoodNoMatch(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	w := serve(s, httptest.NewRequest("GET", "/api/search_food?query=zzz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestServer_HandleSearchFoodWithoutDatabase(t *testing.T) {
	s := newTestServer(t, testServerOptions{noDatabase: true})

	w := serve(s, httptest.NewRequest("GET", "/api/search_food?query=chicken", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, scanner.ErrDatabaseUnavailable.Error(), decodeError(t, w))
}

func TestServer_HandleAnalyzeFoodByNameWithoutDatabase(t *testing.T) {
	s := newTestServer(t, testServerOptions{noDatabase: true})

	w := postJSON(t, s, "/api/analyze_food", `{"food_name": "greek yogurt"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, scanner.ErrDatabaseUnavailable.Error(), decodeError(t, w))
}

func TestServer_HandleAnalyzeFood(t *testing.T) {
	t.Run("by name", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{})

		w := postJSON(t, s, "/api/analyze_food", `{"food_name": "greek yogurt"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result types.AnalysisResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, "greek yogurt", result.FoodName)
		assert.Len(t, result.AllProbabilities, 3)
		assert.Equal(t, result.AllProbabilities[result.PredictedDisease], result.Confidence)
	})

	t.Run("by nutritional data", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{})

		w := postJSON(t, s, "/api/analyze_food", `{
			"nutritional_data": {"Food_Category": "Fast Food", "Sugar_per_100g": 30, "Processing_Level": 9}
		}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result types.AnalysisResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, "Unknown", result.FoodName)
		assert.Equal(t, "Diabetes", result.PredictedDisease)
		assert.GreaterOrEqual(t, result.NutritionalAnalysis.HealthScore, 0)
		assert.LessOrEqual(t, result.NutritionalAnalysis.HealthScore, 100)
	})

	t.Run("data names the food", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{})

		w := postJSON(t, s, "/api/analyze_food", `{
			"nutritional_data": {"Food_Name": "Homemade Soup", "Food_Category": "Whole Food"}
		}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result types.AnalysisResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, "Homemade Soup", result.FoodName)
	})
}

func TestServer_HandleAnalyzeFoodErrors(t *testing.T) {
	tests := []struct {
		name           string
		opts           testServerOptions
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "nothing provided",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No nutritional data provided",
		},
		{
			name:           "unknown name without data",
			body:           `{"food_name": "Dragon Fruit Pie"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No nutritional data provided",
		},
		{
			name:           "malformed body",
			body:           `{"food_name": `,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid JSON body",
		},
		{
			name:           "unknown attribute",
			body:           `{"nutritional_data": {"Vitamin_C": 3}}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid nutritional data: Vitamin_C: unknown field",
		},
		{
			name:           "out of range attribute",
			body:           `{"nutritional_data": {"Food_Category": "Dairy", "Processing_Level": 11}}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid nutritional data: Processing_Level: must be between 1 and 10, got 11",
		},
		{
			name:           "category unknown to the model",
			body:           `{"nutritional_data": {"Food_Category": "Seafood"}}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  `unknown category "Seafood" for column Food_Category`,
		},
		{
			name:           "model not loaded",
			opts:           testServerOptions{noModel: true},
			body:           `{"food_name": "Broccoli"}`,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  scanner.ErrModelUnavailable.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts)

			w := postJSON(t, s, "/api/analyze_food", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedError, decodeError(t, w))
		})
	}
}

func TestServer_HandleCategories(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	w := serve(s, httptest.NewRequest("GET", "/api/categories", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Whole Food", "Dairy", "Fast Food"]`, w.Body.String())
}

func TestServer_HandleHealthyFoods(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedNames []string
	}{
		{"top three overall", "/api/healthy_foods?limit=3", []string{"Broccoli", "Lentils", "Chicken Breast"}},
		{"within a category", "/api/healthy_foods?category=Dairy", []string{"Greek Yogurt", "Milk Chocolate"}},
		{"unknown category", "/api/healthy_foods?category=Seafood", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testServerOptions{})

			w := serve(s, httptest.NewRequest("GET", tt.url, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var records []types.FoodRecord
			require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
			names := make([]string, 0, len(records))
			for _, r := range records {
				names = append(names, r.FoodName)
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}
}

func TestServer_HandleHealthyFoodsBadLimit(t *testing.T) {
	s := newTestServer(t, testServerOptions{})

	for _, limit := range []string{"abc", "0", "-2"} {
		w := serve(s, httptest.NewRequest("GET", "/api/healthy_foods?limit="+limit, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}

func labelUpload(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "label.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/analyze_label", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestServer_HandleAnalyzeLabel(t *testing.T) {
	text := "Organic plain yogurt\nTotal Sugars 4g\nProtein 10g"
	s := newTestServer(t, testServerOptions{labelText: &text})

	w := serve(s, labelUpload(t, pngBytes(t)))
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		LabelReading   labelreader.LabelReading `json:"label_reading"`
		HealthAnalysis types.AnalysisResult     `json:"health_analysis"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "Whole Food", response.LabelReading.FoodCategory)
	assert.Equal(t, 4.0, response.LabelReading.NutritionalData[labelreader.KeySugar])
	assert.Equal(t, "Unknown", response.HealthAnalysis.FoodName)
}

func TestServer_HandleAnalyzeLabelErrors(t *testing.T) {
	empty := ""
	text := "Total Sugars 4g"

	t.Run("reader not configured", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{})
		w := serve(s, labelUpload(t, pngBytes(t)))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("no text extracted", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{labelText: &empty})
		w := serve(s, labelUpload(t, pngBytes(t)))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, labelreader.ErrNoTextExtracted.Error(), decodeError(t, w))
	})

	t.Run("not an image", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{labelText: &text})
		w := serve(s, labelUpload(t, []byte("plain text")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing image field", func(t *testing.T) {
		s := newTestServer(t, testServerOptions{labelText: &text})
		req := httptest.NewRequest("POST", "/api/analyze_label", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		w := serve(s, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServer_APIToken(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{"valid token", "/api/categories", "Bearer api-secret", http.StatusOK},
		{"missing token", "/api/categories", "", http.StatusUnauthorized},
		{"invalid bearer format", "/api/categories", "api-secret", http.StatusUnauthorized},
		{"wrong token", "/api/categories", "Bearer wrong", http.StatusUnauthorized},
		{"health is open", "/health", "", http.StatusOK},
		{"home is open", "/", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, testServerOptions{apiToken: "api-secret"})

			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := serve(s, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestServer_SendErrorDetailInDevelopment(t *testing.T) {
	logger := config.NewTestLogger(&bytes.Buffer{}, "ERROR")
	s := New(&config.Config{Environment: "development"}, scanner.New(nil, nil, nil, logger), logger)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	s.sendError(c, http.StatusInternalServerError, assert.AnError, "internal error")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error: "+assert.AnError.Error(), decodeError(t, w))
}
