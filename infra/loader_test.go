package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonConfig = `{
  "stackName": "OrderAudit",
  "framework": "langgraph",
  "build": {},
  "agents": [{"name": "order-audit"}]
}`

const yamlConfig = `stackName: OrderAudit
framework: langgraph
build: {}
agents:
  - name: order-audit
`

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadStackConfigFromFileJSON(t *testing.T) {
	path := writeTempConfig(t, "config.json", jsonConfig)

	cfg, err := LoadStackConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "OrderAudit", cfg.StackName)
	assert.Equal(t, FrameworkLangGraph, cfg.Framework)
	// Defaults applied on load
	assert.Equal(t, "OrderAudit-agent-build", cfg.Build.ProjectName)
	assert.True(t, cfg.Agents[0].IsDefault)
}

func TestLoadStackConfigFromFileYAML(t *testing.T) {
	path := writeTempConfig(t, "config.yaml", yamlConfig)

	cfg, err := LoadStackConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "OrderAudit", cfg.StackName)
	assert.Equal(t, FrameworkLangGraph, cfg.Framework)
	assert.Equal(t, "OrderAudit-agent", cfg.Build.RepositoryName)
}

func TestLoadStackConfigFromFileUnsupportedExtension(t *testing.T) {
	path := writeTempConfig(t, "config.toml", "stackName = \"x\"")

	_, err := LoadStackConfigFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoadStackConfigFromFileMissing(t *testing.T) {
	_, err := LoadStackConfigFromFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadStackConfigFromJSONInvalid(t *testing.T) {
	_, err := LoadStackConfigFromJSON([]byte(`{"stackName": "OrderAudit"`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON config")
}

func TestLoadStackConfigValidates(t *testing.T) {
	// Parses fine but fails validation: no agents.
	_, err := LoadStackConfigFromJSON([]byte(`{"stackName": "OrderAudit"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestConfigExamplesRoundTrip(t *testing.T) {
	cfg, err := LoadStackConfigFromJSON([]byte(JSONConfigExample()))
	require.NoError(t, err)
	assert.Equal(t, "order-audit", cfg.StackName)

	cfg, err = LoadStackConfigFromYAML([]byte(YAMLConfigExample()))
	require.NoError(t, err)
	assert.Equal(t, "order-audit", cfg.StackName)
}
