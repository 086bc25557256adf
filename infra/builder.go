package infra

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
)

// StackBuilder provides a fluent interface for building starter stacks.
type StackBuilder struct {
	config StackConfig
}

// NewStackBuilder creates a new stack builder.
func NewStackBuilder(stackName string) *StackBuilder {
	return &StackBuilder{
		config: StackConfig{
			StackName: stackName,
			Agents:    []AgentConfig{},
			Tags:      make(map[string]string),
		},
	}
}

// WithDescription sets the stack description.
func (b *StackBuilder) WithDescription(description string) *StackBuilder {
	b.config.Description = description
	return b
}

// WithFramework selects the agent framework the backend runs, which also
// selects the wire format the frontend parses.
func (b *StackBuilder) WithFramework(framework Framework) *StackBuilder {
	b.config.Framework = framework
	return b
}

// WithAgent adds an agent to the stack.
func (b *StackBuilder) WithAgent(config AgentConfig) *StackBuilder {
	b.config.Agents = append(b.config.Agents, config)
	return b
}

// WithSimpleAgent adds an agent with minimal configuration.
func (b *StackBuilder) WithSimpleAgent(name, containerImage string) *StackBuilder {
	return b.WithAgent(DefaultAgentConfig(name, containerImage))
}

// WithDefaultAgent adds an agent and marks it as the one the frontend
// talks to.
func (b *StackBuilder) WithDefaultAgent(name, containerImage string) *StackBuilder {
	config := DefaultAgentConfig(name, containerImage)
	config.IsDefault = true
	return b.WithAgent(config)
}

// WithFrontend configures Amplify hosting.
func (b *StackBuilder) WithFrontend(config *FrontendConfig) *StackBuilder {
	b.config.Frontend = config
	return b
}

// WithManagedFrontend enables Amplify hosting with manual deployments
// driven by the deploy CLI.
func (b *StackBuilder) WithManagedFrontend() *StackBuilder {
	b.config.Frontend = &FrontendConfig{}
	return b
}

// WithAuth configures the Cognito user pool.
func (b *StackBuilder) WithAuth(config *AuthConfig) *StackBuilder {
	b.config.Auth = config
	return b
}

// WithBuild configures the container build pipeline.
func (b *StackBuilder) WithBuild(config *BuildConfig) *StackBuilder {
	b.config.Build = config
	return b
}

// WithManagedBuild enables the build pipeline with default naming.
func (b *StackBuilder) WithManagedBuild() *StackBuilder {
	b.config.Build = &BuildConfig{}
	return b
}

// WithUpload configures the document upload pipeline.
func (b *StackBuilder) WithUpload(config *UploadConfig) *StackBuilder {
	b.config.Upload = config
	return b
}

// WithVPC configures VPC networking.
func (b *StackBuilder) WithVPC(config *VPCConfig) *StackBuilder {
	b.config.VPC = config
	return b
}

// WithExistingVPC uses an existing VPC.
func (b *StackBuilder) WithExistingVPC(vpcID string, subnetIDs []string) *StackBuilder {
	b.config.VPC = &VPCConfig{
		VPCID:     vpcID,
		SubnetIDs: subnetIDs,
	}
	return b
}

// WithNewVPC creates a new VPC with the specified CIDR.
func (b *StackBuilder) WithNewVPC(cidr string, maxAZs int) *StackBuilder {
	b.config.VPC = &VPCConfig{
		CreateVPC:          true,
		VPCCidr:            cidr,
		MaxAZs:             maxAZs,
		EnableVPCEndpoints: true,
	}
	return b
}

// WithIAM configures IAM settings.
func (b *StackBuilder) WithIAM(config *IAMConfig) *StackBuilder {
	b.config.IAM = config
	return b
}

// WithExistingRole uses an existing IAM role.
func (b *StackBuilder) WithExistingRole(roleARN string) *StackBuilder {
	b.config.IAM = &IAMConfig{RoleARN: roleARN}
	return b
}

// WithBedrockModels restricts Bedrock access to specific models.
func (b *StackBuilder) WithBedrockModels(modelIDs ...string) *StackBuilder {
	if b.config.IAM == nil {
		b.config.IAM = DefaultIAMConfig()
	}
	b.config.IAM.BedrockModelIDs = modelIDs
	return b
}

// WithCloudWatchLogs configures CloudWatch logging with the given retention.
func (b *StackBuilder) WithCloudWatchLogs(retentionDays int) *StackBuilder {
	b.config.Observability = &ObservabilityConfig{
		EnableCloudWatchLogs: true,
		LogRetentionDays:     retentionDays,
	}
	return b
}

// WithTags adds tags to all resources.
func (b *StackBuilder) WithTags(tags map[string]string) *StackBuilder {
	for k, v := range tags {
		b.config.Tags[k] = v
	}
	return b
}

// WithTag adds a single tag.
func (b *StackBuilder) WithTag(key, value string) *StackBuilder {
	b.config.Tags[key] = value
	return b
}

// RetainOnDelete sets the removal policy to retain.
func (b *StackBuilder) RetainOnDelete() *StackBuilder {
	b.config.RemovalPolicy = "retain"
	return b
}

// DestroyOnDelete sets the removal policy to destroy.
func (b *StackBuilder) DestroyOnDelete() *StackBuilder {
	b.config.RemovalPolicy = "destroy"
	return b
}

// Config returns the current configuration.
func (b *StackBuilder) Config() StackConfig {
	return b.config
}

// Validate validates the current configuration.
func (b *StackBuilder) Validate() error {
	b.config.ApplyDefaults()
	return b.config.Validate()
}

// Build creates the starter stack.
func (b *StackBuilder) Build(scope constructs.Construct) *StarterStack {
	return NewStarterStack(scope, b.config.StackName, b.config)
}

// AgentBuilder provides a fluent interface for building agent configurations.
type AgentBuilder struct {
	config AgentConfig
}

// NewAgentBuilder creates a new agent builder.
func NewAgentBuilder(name, containerImage string) *AgentBuilder {
	return &AgentBuilder{
		config: DefaultAgentConfig(name, containerImage),
	}
}

// WithDescription sets the agent description.
func (b *AgentBuilder) WithDescription(description string) *AgentBuilder {
	b.config.Description = description
	return b
}

// WithMemory sets the memory allocation in MB.
func (b *AgentBuilder) WithMemory(memoryMB int) *AgentBuilder {
	b.config.MemoryMB = memoryMB
	return b
}

// WithTimeout sets the timeout in seconds.
func (b *AgentBuilder) WithTimeout(timeoutSeconds int) *AgentBuilder {
	b.config.TimeoutSeconds = timeoutSeconds
	return b
}

// WithEnvironment sets environment variables.
func (b *AgentBuilder) WithEnvironment(env map[string]string) *AgentBuilder {
	for k, v := range env {
		b.config.Environment[k] = v
	}
	return b
}

// WithEnvVar adds a single environment variable.
func (b *AgentBuilder) WithEnvVar(key, value string) *AgentBuilder {
	b.config.Environment[key] = value
	return b
}

// WithSecrets adds secret ARNs.
func (b *AgentBuilder) WithSecrets(secretARNs ...string) *AgentBuilder {
	b.config.SecretsARNs = append(b.config.SecretsARNs, secretARNs...)
	return b
}

// AsDefault marks this agent as the default.
func (b *AgentBuilder) AsDefault() *AgentBuilder {
	b.config.IsDefault = true
	return b
}

// Build returns the agent configuration.
func (b *AgentBuilder) Build() AgentConfig {
	return b.config
}

// NewApp creates a new CDK app with common settings.
func NewApp() awscdk.App {
	return awscdk.NewApp(&awscdk.AppProps{
		Context: &map[string]interface{}{
			"@aws-cdk/core:newStyleStackSynthesis": true,
		},
	})
}

// Synth synthesizes the CDK app to CloudFormation templates.
func Synth(app awscdk.App) {
	app.Synth(nil)
}
