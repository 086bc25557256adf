// Package infra provides AWS CDK constructs for the AgentCore starter kit.
package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/constructs-go/constructs/v10"
	"gopkg.in/yaml.v3"
)

// LoadStackConfigFromFile loads a StackConfig from a JSON or YAML file,
// selected by extension.
func LoadStackConfigFromFile(path string) (*StackConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadStackConfigFromJSON(data)
	case ".yaml", ".yml":
		return LoadStackConfigFromYAML(data)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
}

// LoadStackConfigFromJSON parses a StackConfig from JSON data.
func LoadStackConfigFromJSON(data []byte) (*StackConfig, error) {
	var config StackConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing JSON config: %w", err)
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadStackConfigFromYAML parses a StackConfig from YAML data.
func LoadStackConfigFromYAML(data []byte) (*StackConfig, error) {
	var config StackConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// NewStackFromFile creates a StarterStack from a JSON or YAML config file.
// This is the simplest way to deploy - just provide a config file.
func NewStackFromFile(scope constructs.Construct, configPath string) (*StarterStack, error) {
	config, err := LoadStackConfigFromFile(configPath)
	if err != nil {
		return nil, err
	}
	return NewStarterStack(scope, config.StackName, *config), nil
}

// MustNewStackFromFile is like NewStackFromFile but panics on error.
func MustNewStackFromFile(scope constructs.Construct, configPath string) *StarterStack {
	stack, err := NewStackFromFile(scope, configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to create stack from %s: %v", configPath, err))
	}
	return stack
}

// JSONConfigExample returns an example JSON configuration.
func JSONConfigExample() string {
	example := exampleConfig()
	data, _ := json.MarshalIndent(example, "", "  ")
	return string(data)
}

// YAMLConfigExample returns an example YAML configuration.
func YAMLConfigExample() string {
	example := exampleConfig()
	data, _ := yaml.Marshal(example)
	return string(data)
}

// WriteExampleConfig writes an example configuration file, format chosen
// by the path extension.
func WriteExampleConfig(path string) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		content = JSONConfigExample()
	case ".yaml", ".yml":
		content = YAMLConfigExample()
	default:
		return fmt.Errorf("unsupported config format %q (want .json, .yaml, or .yml)", filepath.Ext(path))
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func exampleConfig() StackConfig {
	return StackConfig{
		StackName:   "order-audit",
		Description: "Order audit agent with streaming chat frontend",
		Framework:   FrameworkStrands,
		Frontend:    &FrontendConfig{},
		Auth:        &AuthConfig{},
		Build:       &BuildConfig{},
		Upload:      &UploadConfig{},
		Agents: []AgentConfig{
			{
				Name:        "order-audit",
				Description: "Audits uploaded order documents",
				IsDefault:   true,
			},
		},
		Tags: map[string]string{
			"Project": "order-audit",
		},
	}
}
