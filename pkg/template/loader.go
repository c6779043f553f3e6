package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// definition is the YAML authoring format for operator-managed templates.
type definition struct {
	Name        string                     `yaml:"name"`
	Type        string                     `yaml:"type"`
	Description string                     `yaml:"description"`
	CreatedBy   string                     `yaml:"created_by"`
	Tags        []string                   `yaml:"tags"`
	Variables   []Variable                 `yaml:"variables"`
	Channels    map[string]ChannelTemplate `yaml:"channels"`
	Metadata    map[string]any             `yaml:"metadata"`
}

// Parse builds a template from a YAML definition, running the full entity
// validation (variable grammar, channel body sizes, formats) on load.
func Parse(data []byte) (*Template, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse template definition: %w", err)
	}

	typ, err := notification.ParseType(def.Type)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithDescription(def.Description),
		WithVariables(def.Variables...),
		WithTags(def.Tags...),
	}
	if def.Metadata != nil {
		opts = append(opts, WithMetadata(def.Metadata))
	}

	tpl, err := New(def.Name, typ, def.CreatedBy, opts...)
	if err != nil {
		return nil, err
	}

	for raw, ct := range def.Channels {
		c, err := notification.ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		if err := tpl.SetChannelTemplate(c, ct); err != nil {
			return nil, err
		}
	}

	return tpl, nil
}

// LoadFile reads and parses a YAML template definition from disk.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template definition: %w", err)
	}
	return Parse(data)
}
