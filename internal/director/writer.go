package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marshal encodes a script as YAML
func Marshal(script *Script) ([]byte, error) {
	return yaml.Marshal(script)
}

// Unmarshal decodes and validates a YAML script
func Unmarshal(data []byte) (*Script, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return &script, nil
}

// WriteScript writes a script to a YAML file
func WriteScript(script *Script, path string) error {
	data, err := Marshal(script)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads a script from a YAML file
func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	script, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return script, nil
}
