package diagnostics

import (
	"fmt"
	"math"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

// Score bounds for every criterion.
const (
	MinScore = 1
	MaxScore = 10
)

// ValidationResult lists every problem found in a score payload.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// ScoreValidator checks raw score payloads against a JSON schema generated
// from the criteria: every criterion required, integers within
// [MinScore, MaxScore], no other keys.
type ScoreValidator struct {
	criteria []models.Criterion
	schema   *gojsonschema.Schema
}

// NewScoreValidator compiles the schema for criteria.
func NewScoreValidator(criteria []models.Criterion) (*ScoreValidator, error) {
	properties := make(map[string]any, len(criteria))
	required := make([]any, 0, len(criteria))
	for _, c := range criteria {
		properties[c.ID] = map[string]any{
			"type":    "integer",
			"minimum": MinScore,
			"maximum": MaxScore,
		}
		required = append(required, c.ID)
	}

	schemaMap := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("failed to compile score schema: %w", err)
	}

	return &ScoreValidator{criteria: criteria, schema: schema}, nil
}

// Validate checks a decoded JSON scores object. Errors are reported per
// criterion in configuration order, then unknown ids sorted.
func (v *ScoreValidator) Validate(scores map[string]any) (ValidationResult, error) {
	if scores == nil {
		scores = map[string]any{}
	}

	result, err := v.schema.Validate(gojsonschema.NewGoLoader(scores))
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validation error: %w", err)
	}

	missing := map[string]bool{}
	invalid := map[string]bool{}
	var unknown []string

	for _, desc := range result.Errors() {
		switch desc.Type() {
		case "required":
			if p, ok := desc.Details()["property"].(string); ok {
				missing[p] = true
			}
		case "additional_property_not_allowed":
			if p, ok := desc.Details()["property"].(string); ok {
				unknown = append(unknown, p)
			}
		default:
			invalid[desc.Field()] = true
		}
	}

	errs := []string{}
	for _, c := range v.criteria {
		switch {
		case missing[c.ID]:
			errs = append(errs, "Missing score for criterion: "+c.Name)
		case invalid[c.ID]:
			errs = append(errs, fmt.Sprintf("Invalid score for %s: must be integer between %d-%d", c.Name, MinScore, MaxScore))
		}
	}

	sort.Strings(unknown)
	for _, id := range unknown {
		errs = append(errs, "Unknown criterion ID: "+id)
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}, nil
}

// ToScores converts a payload that passed Validate into typed scores.
func ToScores(scores map[string]any) map[string]int {
	out := make(map[string]int, len(scores))
	for id, raw := range scores {
		switch n := raw.(type) {
		case float64:
			out[id] = int(math.Round(n))
		case int:
			out[id] = n
		case int64:
			out[id] = int(n)
		}
	}
	return out
}
