package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() StackConfig {
	cfg := StackConfig{
		StackName: "OrderAudit",
		Agents:    []AgentConfig{{Name: "order-audit"}},
		Build:     &BuildConfig{},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := StackConfig{
		StackName: "OrderAudit",
		Frontend:  &FrontendConfig{},
		Auth:      &AuthConfig{},
		Build:     &BuildConfig{},
		Upload:    &UploadConfig{},
		Agents:    []AgentConfig{{Name: "order-audit"}},
	}
	cfg.ApplyDefaults()

	assert.Equal(t, FrameworkStrands, cfg.Framework)
	assert.Equal(t, "destroy", cfg.RemovalPolicy)
	assert.Equal(t, "OrderAudit-frontend", cfg.Frontend.AppName)
	assert.Equal(t, "main", cfg.Frontend.BranchName)
	assert.NotEmpty(t, cfg.Frontend.CustomRules)
	assert.Equal(t, "OrderAudit-users", cfg.Auth.UserPoolName)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, "OrderAudit-agent", cfg.Build.RepositoryName)
	assert.Equal(t, "OrderAudit-agent-build", cfg.Build.ProjectName)
	assert.Equal(t, 1, cfg.Upload.ExpiryDays)
	assert.NotNil(t, cfg.IAM)
	assert.NotNil(t, cfg.Observability)

	agent := cfg.Agents[0]
	assert.Equal(t, "HTTP", agent.Protocol)
	assert.Equal(t, 512, agent.MemoryMB)
	assert.Equal(t, 900, agent.TimeoutSeconds)
	assert.True(t, agent.IsDefault, "a single agent becomes the default")
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StackConfig)
		wantErr string
	}{
		{
			name:    "empty stack name",
			mutate:  func(c *StackConfig) { c.StackName = "" },
			wantErr: "stackName is required",
		},
		{
			name:    "invalid stack name",
			mutate:  func(c *StackConfig) { c.StackName = "9order" },
			wantErr: "must start with a letter",
		},
		{
			name:    "unknown framework",
			mutate:  func(c *StackConfig) { c.Framework = "crewai" },
			wantErr: "not supported",
		},
		{
			name:    "no agents",
			mutate:  func(c *StackConfig) { c.Agents = nil },
			wantErr: "at least one agent",
		},
		{
			name: "duplicate agent names",
			mutate: func(c *StackConfig) {
				c.Agents = append(c.Agents, c.Agents[0])
			},
			wantErr: "duplicate agent name",
		},
		{
			name: "no image and no build",
			mutate: func(c *StackConfig) {
				c.Build = nil
				c.Agents[0].ContainerImage = ""
			},
			wantErr: "no containerImage and no build",
		},
		{
			name: "two defaults",
			mutate: func(c *StackConfig) {
				second := AgentConfig{Name: "second", Protocol: "HTTP", IsDefault: true}
				c.Agents = append(c.Agents, second)
			},
			wantErr: "only one agent may be the default",
		},
		{
			name: "repository without access token",
			mutate: func(c *StackConfig) {
				c.Frontend = &FrontendConfig{Repository: "https://github.com/acme/frontend"}
			},
			wantErr: "accessTokenSecretArn",
		},
		{
			name: "new vpc without cidr",
			mutate: func(c *StackConfig) {
				c.VPC = &VPCConfig{CreateVPC: true}
			},
			wantErr: "vpcCidr",
		},
		{
			name:    "bad removal policy",
			mutate:  func(c *StackConfig) { c.RemovalPolicy = "keep" },
			wantErr: "removalPolicy",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDefaultAgent(t *testing.T) {
	cfg := StackConfig{
		StackName: "Multi",
		Build:     &BuildConfig{},
		Agents: []AgentConfig{
			{Name: "first"},
			{Name: "second", IsDefault: true},
		},
	}
	cfg.ApplyDefaults()

	agent := cfg.DefaultAgent()
	require.NotNil(t, agent)
	assert.Equal(t, "second", agent.Name)
}

func TestParameterName(t *testing.T) {
	cfg := StackConfig{StackName: "OrderAudit"}
	assert.Equal(t, "/orderaudit/runtime_arn", cfg.ParameterName("runtime_arn"))
}
