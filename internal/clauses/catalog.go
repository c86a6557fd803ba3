package clauses

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service is a selectable service category shown on the intake form.
type Service struct {
	Key   string `yaml:"key" json:"key"`
	Title string `yaml:"title" json:"title"`
}

type Catalog struct {
	Services []Service `yaml:"services" json:"services"`
}

func DefaultCatalog() Catalog {
	return Catalog{Services: []Service{
		{Key: "finance", Title: "Finance & Accounting"},
		{Key: "it", Title: "IT / Software"},
		{Key: "hr", Title: "HR & Payroll"},
		{Key: "business", Title: "Business Consulting"},
	}}
}

func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read service catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse service catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) Validate() error {
	if len(c.Services) == 0 {
		return errors.New("service catalog is empty")
	}
	seen := make(map[string]struct{}, len(c.Services))
	for _, s := range c.Services {
		if !keyPattern.MatchString(s.Key) {
			return fmt.Errorf("service key %q is invalid", s.Key)
		}
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("service %q: title is required", s.Key)
		}
		if _, dup := seen[s.Key]; dup {
			return fmt.Errorf("duplicate service key %q", s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return nil
}

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Services))
	for _, s := range c.Services {
		keys = append(keys, s.Key)
	}
	return keys
}

func (c Catalog) Title(key string) (string, bool) {
	for _, s := range c.Services {
		if s.Key == key {
			return s.Title, true
		}
	}
	return "", false
}
