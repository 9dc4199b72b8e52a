// Package catalog loads the seed set of document templates from a YAML file.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/engagement-tracker/internal/domain/entity"
)

// File is the on-disk shape of a template catalog
type File struct {
	Templates []TemplateEntry `yaml:"templates"`
}

// TemplateEntry is one catalog entry
type TemplateEntry struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Body        string `yaml:"body"`
}

// LoadFile reads and validates a catalog file
func LoadFile(path string) ([]entity.DocumentTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML into templates, in file order
func Parse(data []byte) ([]entity.DocumentTemplate, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Templates))
	templates := make([]entity.DocumentTemplate, 0, len(file.Templates))
	for i, item := range file.Templates {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("template %d: name is required", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("template %q: duplicate name", name)
		}
		if strings.TrimSpace(item.Body) == "" {
			return nil, fmt.Errorf("template %q: body is required", name)
		}
		seen[name] = true

		displayName := strings.TrimSpace(item.DisplayName)
		if displayName == "" {
			displayName = name
		}

		templates = append(templates, entity.DocumentTemplate{
			Name:        name,
			DisplayName: displayName,
			Body:        item.Body,
		})
	}

	return templates, nil
}
