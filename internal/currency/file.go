package currency

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type fileSpec struct {
	Reference  string `yaml:"reference"`
	Currencies []struct {
		Code   string `yaml:"code"`
		Symbol string `yaml:"symbol"`
		Name   string `yaml:"name"`
		Rate   string `yaml:"rate"`
	} `yaml:"currencies"`
}

// LoadFile builds a table from a YAML file. Rates are quoted decimal strings
// so they never pass through float64.
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read currency file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Table, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("parse currency file: %w", err)
	}
	entries := make([]Entry, 0, len(spec.Currencies))
	for _, c := range spec.Currencies {
		rate, err := decimal.NewFromString(c.Rate)
		if err != nil {
			return nil, fmt.Errorf("currency %s: rate %q: %w", c.Code, c.Rate, err)
		}
		entries = append(entries, Entry{Code: c.Code, Symbol: c.Symbol, Name: c.Name, Rate: rate})
	}
	return NewTable(spec.Reference, entries)
}
