// Package secrets resolves provider credentials from config values or files.
package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where an API key may come from.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline key from configuration or the environment.
	Value string
	// File points to a file holding the key and takes precedence over Value.
	File string
}

// Load returns the trimmed key, reading File when set.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	if key := strings.TrimSpace(src.Value); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("%s is not configured", name)
}

// LoadOptional is Load for providers that work without a key.
func LoadOptional(src Source) (string, error) {
	if strings.TrimSpace(src.File) == "" && strings.TrimSpace(src.Value) == "" {
		return "", nil
	}
	return Load(src)
}
