package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/stockscreen/backend/internal/backtestcfg"
	"github.com/wonny/stockscreen/backend/internal/contracts"
)

// readYAML decodes a YAML (or JSON) file into dest
func readYAML(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// readRules reads a rule list. An empty path is the empty rule set.
func readRules(path string) ([]contracts.Rule, error) {
	if path == "" {
		return nil, nil
	}
	var rules []contracts.Rule
	if err := readYAML(path, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// readInput reads editor input. An empty path is the empty editor.
func readInput(path string) (backtestcfg.Input, error) {
	var in backtestcfg.Input
	if path == "" {
		return in, nil
	}
	return in, readYAML(path, &in)
}

// readRequest reads a normalized request JSON file
func readRequest(path string) (*backtestcfg.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var req backtestcfg.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &req, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
