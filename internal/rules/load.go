package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// document is the on-disk YAML layout of a rules file.
type document struct {
	MaxHeaderRows        *int           `yaml:"max_header_rows,omitempty"`
	Fields               []FieldType    `yaml:"fields"`
	NumericSubstitutions []Substitution `yaml:"numeric_substitutions"`
	AirportSubstitutions []Substitution `yaml:"airport_substitutions"`
	Aliases              []Alias        `yaml:"aliases"`
	HeaderTerms          []string       `yaml:"header_terms,omitempty"`
}

// Parse decodes a rules document. Unknown keys are rejected so a misspelled
// section does not silently fall back to an empty table.
func Parse(data []byte) (*Rules, error) {
	var doc document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	return build(doc)
}

// Load reads and parses a rules file.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied rules file
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// LoadOrDefault loads path, or the embedded defaults when path is empty.
func LoadOrDefault(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns the embedded default rules.
// Panics if the embedded file is invalid, which is a build defect.
func Default() *Rules {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded default rules: %v", err))
	}
	return r
}

// MarshalYAML renders the rules in the same layout Parse accepts.
func (r *Rules) MarshalYAML() (interface{}, error) {
	maxRows := r.maxHeaderRows
	return document{
		MaxHeaderRows:        &maxRows,
		Fields:               r.Fields(),
		NumericSubstitutions: r.NumericSubstitutions(),
		AirportSubstitutions: r.AirportSubstitutions(),
		Aliases:              r.Aliases(),
		HeaderTerms:          r.HeaderTerms(),
	}, nil
}
