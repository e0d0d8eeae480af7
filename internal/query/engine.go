package query

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

// DatabaseLoadError reports a food database that could not be read
type DatabaseLoadError struct {
	Path string
	Err  error
}

func (e *DatabaseLoadError) Error() string {
	return fmt.Sprintf("failed to load food database %s: %v", e.Path, e.Err)
}

func (e *DatabaseLoadError) Unwrap() error {
	return e.Err
}

// LoadCSV reads the food database CSV through DuckDB. Columns are matched by
// header name; unknown columns are ignored and empty cells are missing values.
func LoadCSV(ctx context.Context, path string, logger *slog.Logger) (*Database, error) {
	start := time.Now()
	logger.Debug("Loading food database", "path", path)

	if _, err := os.Stat(path); err != nil {
		return nil, &DatabaseLoadError{Path: path, Err: err}
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("failed to open duckdb: %w", err)}
	}
	defer db.Close()

	// every column as text so values are parsed against the profile schema
	// rather than DuckDB's type sniffing
	rows, err := db.QueryContext(ctx, `SELECT * FROM read_csv(?, header = true, all_varchar = true)`, path)
	if err != nil {
		logger.Error("DuckDB read_csv failed", "error", err, "duration", time.Since(start))
		return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("query failed: %w", err)}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &DatabaseLoadError{Path: path, Err: err}
	}
	if !slices.Contains(columns, types.FieldFoodName) {
		return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("missing %s column", types.FieldFoodName)}
	}

	var records []types.FoodRecord
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for line := 2; rows.Next(); line++ {
		if err := rows.Scan(dest...); err != nil {
			return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("scan failed: %w", err)}
		}
		record, err := parseRow(columns, values)
		if err != nil {
			return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("line %d: %w", line, err)}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Rows iteration failed", "error", err)
		return nil, &DatabaseLoadError{Path: path, Err: fmt.Errorf("rows error: %w", err)}
	}

	d := NewDatabase(records)
	logger.Info("Food database loaded",
		"path", path,
		"records", d.Len(),
		"categories", len(d.Categories()),
		"duration", time.Since(start))
	return d, nil
}

func parseRow(columns []string, values []sql.NullString) (types.FoodRecord, error) {
	var r types.FoodRecord
	for i, column := range columns {
		if !values[i].Valid {
			continue
		}
		raw := strings.TrimSpace(values[i].String)

		switch column {
		case types.FieldFoodName:
			r.FoodName = raw
			continue
		case types.FieldFoodCategory:
			r.FoodCategory = raw
			continue
		case types.FieldDiseaseRisk:
			r.DiseaseRisk = raw
			continue
		}

		field, ok := r.Field(column)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return r, fmt.Errorf("column %s: invalid number %q", column, raw)
		}
		*field = &v
	}
	return r, nil
}
