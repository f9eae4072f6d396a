package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/icetype/icetype/internal/schema"
)

// Load reads the first schema document from a .yaml, .yml, .json, or
// .ice.yaml file. YAML is a JSON superset, so JSON sample files go through
// the same decoder.
func Load(path string) (*schema.RawDefinition, error) {
	defs, err := LoadAll(path)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no schema documents found in %s", path)
	}
	return defs[0], nil
}

// LoadAll reads every document in a file. Multi-document YAML files hold
// one schema per document.
func LoadAll(path string) ([]*schema.RawDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var defs []*schema.RawDefinition
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		def, err := definitionFromDocument(&doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if def != nil {
			defs = append(defs, def)
		}
	}

	return defs, nil
}

// ParseDocument decodes a single schema document held in memory.
func ParseDocument(data []byte) (*schema.RawDefinition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}

	def, err := definitionFromDocument(&doc)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("schema document is empty")
	}
	return def, nil
}

// definitionFromDocument walks the top-level mapping node pairwise so field
// order survives decoding. Nested values lose nothing by going through the
// plain decoder: only the top-level key order is observable downstream.
func definitionFromDocument(doc *yaml.Node) (*schema.RawDefinition, error) {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema document must be a mapping, got %s on line %d", nodeKind(node), node.Line)
	}

	def := schema.NewRawDefinition()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("invalid key on line %d: %w", keyNode.Line, err)
		}

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid value for %q on line %d: %w", key, valueNode.Line, err)
		}

		def.Set(key, value)
	}

	return def, nil
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}

// Expand resolves schema glob patterns into a sorted, deduplicated file
// list. Patterns without matches are skipped rather than failing, so a
// fresh project with an empty schemas directory still runs.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid schema pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if seen[match] {
				continue
			}
			seen[match] = true
			files = append(files, match)
		}
	}

	sort.Strings(files)
	return files, nil
}
