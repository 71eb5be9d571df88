package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/models"
)

//go:embed default_event.yaml
var defaultEventYAML []byte

var validate = validator.New()

// Event is the static roster of a judging event: categories, criteria,
// squads, judges and access codes. It is loaded once at startup and never
// mutated afterwards.
type Event struct {
	Name        string              `yaml:"name"`
	Categories  []models.Category   `yaml:"categories" validate:"dive"`
	Criteria    []models.Criterion  `yaml:"criteria" validate:"dive"`
	Squads      []models.Squad      `yaml:"squads" validate:"dive"`
	Judges      []models.Judge      `yaml:"judges" validate:"dive"`
	AccessCodes []models.AccessCode `yaml:"access_codes" validate:"dive"`
}

// LoadEvent reads the roster at path, or the embedded default when path is empty
func LoadEvent(path string) (*Event, error) {
	if path == "" {
		return ParseEvent(bytes.NewReader(defaultEventYAML))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event config: %w", err)
	}
	defer f.Close()

	return ParseEvent(f)
}

// ParseEvent decodes and validates a YAML roster
func ParseEvent(r io.Reader) (*Event, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var ev Event
	if err := dec.Decode(&ev); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("event config is empty")
		}
		return nil, fmt.Errorf("failed to decode event config: %w", err)
	}

	// Codes are matched case-insensitively at login
	for i := range ev.AccessCodes {
		ev.AccessCodes[i].Code = strings.ToUpper(strings.TrimSpace(ev.AccessCodes[i].Code))
	}

	if err := validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("event config validation failed: %w", err)
	}

	return &ev, nil
}

// TotalWeight returns the sum of all criterion weights
func (e *Event) TotalWeight() int {
	total := 0
	for _, c := range e.Criteria {
		total += c.Weight
	}
	return total
}

// Squad looks up a squad by id
func (e *Event) Squad(id string) (models.Squad, bool) {
	for _, s := range e.Squads {
		if s.ID == id {
			return s, true
		}
	}
	return models.Squad{}, false
}

// IsJudge reports whether name is a configured judge
func (e *Event) IsJudge(name string) bool {
	for _, j := range e.Judges {
		if j.Name == name {
			return true
		}
	}
	return false
}
