package chain

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is one action in a chain.
type Step struct {
	// Key names the completion group, joined to the owner id.
	Key string `yaml:"key"`

	// Type selects the handler.
	Type string `yaml:"type"`

	// Params are handler-specific settings.
	Params map[string]any `yaml:"params,omitempty"`
}

// Chain is an ordered list of steps bound to an owner.
type Chain struct {
	Owner string `yaml:"owner"`
	Steps []Step `yaml:"steps"`
}

// GroupName returns the coordinator group that step key of owner triggers
// on completion. Names are concatenated without a separator.
func GroupName(owner, key string) string {
	return owner + key
}

// Validate checks that the chain can be bound.
func (c Chain) Validate() error {
	if c.Owner == "" {
		return errors.New("chain owner is required")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("chain %s: at least one step is required", c.Owner)
	}

	seen := make(map[string]bool, len(c.Steps))
	for i, s := range c.Steps {
		if s.Key == "" {
			return fmt.Errorf("chain %s: steps[%d].key is required", c.Owner, i)
		}
		if s.Type == "" {
			return fmt.Errorf("chain %s: steps[%d].type is required", c.Owner, i)
		}
		if seen[s.Key] {
			return fmt.Errorf("chain %s: duplicate step key %q", c.Owner, s.Key)
		}
		seen[s.Key] = true
	}
	return nil
}

// File is a YAML document holding chain definitions.
type File struct {
	Chains []Chain `yaml:"chains"`
}

// LoadFile reads and validates a chain definition file.
func LoadFile(path string) ([]Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain file: %w", err)
	}

	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty document", path)
		}
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}

	for _, c := range f.Chains {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f.Chains, nil
}
