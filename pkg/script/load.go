package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the encoding of a game script document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension. Anything
// that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// IsScriptFile reports whether a file name looks like a game script.
func IsScriptFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Parse decodes a game script document.
func Parse(data []byte, format Format) (*GameScript, error) {
	var gs GameScript
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &gs); err != nil {
			return nil, fmt.Errorf("failed to parse yaml game script: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &gs); err != nil {
			return nil, fmt.Errorf("failed to parse json game script: %w", err)
		}
	}
	if gs.PromptList == nil {
		return nil, fmt.Errorf("game script has no promptList")
	}
	return &gs, nil
}

// Load reads and decodes a game script file.
func Load(path string) (*GameScript, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //nolint:gosec // path is cleaned by the caller's storage layer
	if err != nil {
		return nil, fmt.Errorf("failed to read game script %s: %w", cleanPath, err)
	}
	return Parse(data, FormatFromPath(cleanPath))
}
