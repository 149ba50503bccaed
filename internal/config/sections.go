package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/issue-validator/internal/validate/domain"
)

// LoadSectionsFile reads label groups from a YAML mapping of label to
// sections:
//
//	bug:
//	  - steps to reproduce
//	  - expected behaviour
//	docs: summary, motivation
//
// Labels keep the order they appear in the file.
func LoadSectionsFile(path string) ([]domain.LabelGroup, error) {
	//nolint:gosec // G304: path is operator-supplied configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sections file: %w", err)
	}

	groups, err := ParseSectionsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing sections file %s: %w", path, err)
	}
	return groups, nil
}

// ParseSectionsYAML parses the sections file format. Values may be a list
// of section names or a single comma-separated string.
func ParseSectionsYAML(data []byte) ([]domain.LabelGroup, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of label to sections", root.Line)
	}

	var groups []domain.LabelGroup
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		var sections []string
		switch value.Kind {
		case yaml.SequenceNode:
			if err := value.Decode(&sections); err != nil {
				return nil, fmt.Errorf("line %d: sections for %q: %w", value.Line, key.Value, err)
			}
		case yaml.ScalarNode:
			sections = strings.Split(value.Value, ",")
		default:
			return nil, fmt.Errorf("line %d: sections for %q must be a list or a string", value.Line, key.Value)
		}

		label := normalize(key.Value)
		if label == "" {
			return nil, fmt.Errorf("line %d: empty label", key.Line)
		}
		group := domain.LabelGroup{Label: label}
		for _, s := range sections {
			if s = normalize(s); s != "" {
				group.Sections = append(group.Sections, s)
			}
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
