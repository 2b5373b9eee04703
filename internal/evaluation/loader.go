package evaluation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadGoldenQueries reads a golden query set from a YAML file.
func LoadGoldenQueries(path string) ([]GoldenQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden queries file: %w", err)
	}
	return ParseGoldenQueries(data)
}

// ParseGoldenQueries decodes and validates a YAML golden query set.
func ParseGoldenQueries(data []byte) ([]GoldenQuery, error) {
	var queries []GoldenQuery
	if err := yaml.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse golden queries: %w", err)
	}
	if err := ValidateGoldenQueries(queries); err != nil {
		return nil, err
	}
	return queries, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenQueries checks ids are unique and every query is usable.
func ValidateGoldenQueries(queries []GoldenQuery) error {
	seen := make(map[string]struct{}, len(queries))

	for i, q := range queries {
		if q.ID == "" {
			return fmt.Errorf("query at index %d: missing id", i)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("query at index %d: duplicate id %q", i, q.ID)
		}
		seen[q.ID] = struct{}{}

		if q.Query == "" {
			return fmt.Errorf("query %q: missing query text", q.ID)
		}
		if len(q.Expected) == 0 {
			return fmt.Errorf("query %q: no expected terms", q.ID)
		}
		if q.Category != nil && !q.Category.Valid() {
			return fmt.Errorf("query %q: invalid category %q", q.ID, *q.Category)
		}
		if !validDifficulties[q.Difficulty] {
			return fmt.Errorf("query %q: invalid difficulty %q (must be easy/medium/hard)", q.ID, q.Difficulty)
		}
	}

	return nil
}
