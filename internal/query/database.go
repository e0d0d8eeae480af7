package query

import (
	"slices"
	"strings"

	"github.com/noot-app/food-risk-scanner/internal/types"
)

// Database is an in-memory table of food records kept in load order.
// It is immutable after construction and safe for concurrent use.
type Database struct {
	records    []types.FoodRecord
	byName     map[string]int
	categories []string
}

// Ensure Database implements FoodDatabase interface
var _ FoodDatabase = (*Database)(nil)

// NewDatabase indexes a deep copy of records. Records handed out by the
// lookups are copies as well, so callers cannot modify the table.
func NewDatabase(records []types.FoodRecord) *Database {
	d := &Database{
		records: cloneRecords(records),
		byName:  make(map[string]int, len(records)),
	}

	seen := make(map[string]bool)
	for i, r := range d.records {
		key := strings.ToLower(r.FoodName)
		if _, ok := d.byName[key]; !ok {
			d.byName[key] = i
		}
		if !seen[r.FoodCategory] {
			seen[r.FoodCategory] = true
			d.categories = append(d.categories, r.FoodCategory)
		}
	}
	return d
}

// Len returns the number of records
func (d *Database) Len() int {
	return len(d.records)
}

// Search returns up to MaxSearchResults foods whose name contains query,
// ignoring case, in load order
func (d *Database) Search(query string) []types.FoodRecord {
	query = strings.ToLower(query)
	results := []types.FoodRecord{}
	for _, r := range d.records {
		if strings.Contains(strings.ToLower(r.FoodName), query) {
			results = append(results, r.Clone())
			if len(results) == MaxSearchResults {
				break
			}
		}
	}
	return results
}

// ExactMatch finds the first food whose name equals name, ignoring case
func (d *Database) ExactMatch(name string) (types.FoodRecord, bool) {
	i, ok := d.byName[strings.ToLower(name)]
	if !ok {
		return types.FoodRecord{}, false
	}
	return d.records[i].Clone(), true
}

// Categories returns the distinct categories in first-seen order
func (d *Database) Categories() []string {
	return slices.Clone(d.categories)
}

// TopHealthy ranks foods by Nutritional_Density descending, then
// Processing_Level ascending, keeping load order among equals. Records
// missing either value sort after those that have it. An empty category
// ranks every food; otherwise only exact category matches are ranked.
func (d *Database) TopHealthy(category string, limit int) []types.FoodRecord {
	ranked := []types.FoodRecord{}
	for _, r := range d.records {
		if category == "" || r.FoodCategory == category {
			ranked = append(ranked, r)
		}
	}

	slices.SortStableFunc(ranked, func(a, b types.FoodRecord) int {
		if c := compareMissingLast(a.NutritionalDensity, b.NutritionalDensity, true); c != 0 {
			return c
		}
		return compareMissingLast(a.ProcessingLevel, b.ProcessingLevel, false)
	})

	if limit >= 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return cloneRecords(ranked)
}

func compareMissingLast(a, b *float64, descending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a == *b:
		return 0
	case (*a > *b) == descending:
		return -1
	default:
		return 1
	}
}

func cloneRecords(records []types.FoodRecord) []types.FoodRecord {
	out := make([]types.FoodRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
