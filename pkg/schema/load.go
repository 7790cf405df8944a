package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a threat model document from a JSON or YAML file and
// decodes it strictly into the typed struct. Unknown fields are rejected.
// Use LoadRawFile for the permissive form the validators consume.
func LoadFile(path string) (*ThreatModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(bytes.NewReader(data), isYAMLPath(path) || !looksLikeJSON(data))
}

// Load decodes a typed threat model from r. When asYAML is false the
// input is treated as JSON.
func Load(r io.Reader, asYAML bool) (*ThreatModel, error) {
	var tm ThreatModel
	if asYAML {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&tm); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return &tm, nil
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tm); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return &tm, nil
}

// LoadRawFile reads a document permissively into a generic map. This is
// the form the validation pipeline operates on: no shape is assumed
// before validation has run.
func LoadRawFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return LoadRaw(data, isYAMLPath(path) || !looksLikeJSON(data))
}

// LoadRaw decodes a document permissively from raw bytes.
func LoadRaw(data []byte, asYAML bool) (map[string]any, error) {
	var doc map[string]any
	if asYAML {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return doc, nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
