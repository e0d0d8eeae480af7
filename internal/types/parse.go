package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// ProfileError reports nutritional data rejected at the parsing boundary
type ProfileError struct {
	Field  string
	Reason string
}

func (e *ProfileError) Error() string {
	if e.Field == "" {
		return "invalid nutritional data: " + e.Reason
	}
	return fmt.Sprintf("invalid nutritional data: %s: %s", e.Field, e.Reason)
}

type bound struct {
	min, max float64
	integer  bool
}

var bounds = map[string]bound{
	FieldCalories:           {0, math.Inf(1), false},
	FieldProtein:            {0, math.Inf(1), false},
	FieldCarbs:              {0, math.Inf(1), false},
	FieldFat:                {0, math.Inf(1), false},
	FieldFiber:              {0, math.Inf(1), false},
	FieldSugar:              {0, math.Inf(1), false},
	FieldSodium:             {0, math.Inf(1), false},
	FieldProcessingLevel:    {1, 10, true},
	FieldNutritionalDensity: {1, 10, true},
	FieldGlycemicIndex:      {0, 100, true},
	FieldAdditivesCount:     {0, math.Inf(1), true},
}

// ParseNutritionalData decodes a JSON object of nutritional attributes.
// Unknown keys are rejected. Food_Name may be supplied alongside the profile
// and is returned in the record.
func ParseNutritionalData(data []byte) (*FoodRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()

	var record FoodRecord
	if err := dec.Decode(&record); err != nil {
		return nil, decodeError(err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ProfileError{Reason: "trailing data after object"}
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}
	return &record, nil
}

// Validate checks every supplied attribute against its documented range
func (p *NutritionalProfile) Validate() error {
	for _, name := range NumericFields {
		v, ok := p.Numeric(name)
		if !ok {
			continue
		}
		b := bounds[name]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ProfileError{Field: name, Reason: "must be a finite number"}
		}
		if v < b.min || v > b.max {
			if math.IsInf(b.max, 1) {
				return &ProfileError{Field: name, Reason: fmt.Sprintf("must be >= %g, got %g", b.min, v)}
			}
			return &ProfileError{Field: name, Reason: fmt.Sprintf("must be between %g and %g, got %g", b.min, b.max, v)}
		}
		if b.integer && v != math.Trunc(v) {
			return &ProfileError{Field: name, Reason: fmt.Sprintf("must be an integer, got %g", v)}
		}
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		// Field may be prefixed with the embedded struct path
		field := typeErr.Field
		if i := strings.LastIndex(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return &ProfileError{Field: field, Reason: "expected " + typeErr.Type.String()}
	}

	// encoding/json reports unknown keys as: json: unknown field "X"
	msg := err.Error()
	if field, ok := strings.CutPrefix(msg, "json: unknown field "); ok {
		return &ProfileError{Field: strings.Trim(field, `"`), Reason: "unknown field"}
	}
	return &ProfileError{Reason: msg}
}
