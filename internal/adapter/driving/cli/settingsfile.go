package cli

import (
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/codeguardian/internal/domain/settings"
)

// ExportYAML renders agg as a YAML document with one mapping per section,
// in tab order.
func ExportYAML(agg settings.Aggregate) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range settings.Sections() {
		var section yaml.Node
		if err := section.Encode(settings.EncodeSection(s, agg[s])); err != nil {
			return nil, fmt.Errorf("encode %s: %w", s, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(s)},
			&section,
		)
	}
	return yaml.Marshal(root)
}

// ImportYAML applies a YAML settings document over base. Each section in
// the document replaces the corresponding section of base, with omitted
// fields taking their defaults; sections absent from the document are kept.
// Unknown sections or fields and values of the wrong kind are rejected.
func ImportYAML(base settings.Aggregate, data []byte) (settings.Aggregate, error) {
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}

	agg := base.Clone()
	for key, raw := range doc {
		s, err := settings.ParseSection(key)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}

		values := settings.SectionDefaults(s)
		for name, v := range raw {
			if slices.Contains(settings.ServerOwnedFields, name) {
				continue
			}
			f, err := settings.Lookup(s, name)
			if err != nil {
				return nil, err
			}
			coerced, err := f.Coerce(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s, err)
			}
			values[name] = coerced
		}
		agg[s] = values
	}
	return agg, nil
}
