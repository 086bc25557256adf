package infra

import (
	"fmt"
	"regexp"
	"strings"
)

// Framework identifies which agent framework the backend container runs.
// It decides the wire format the frontend stream parser must consume.
type Framework string

const (
	FrameworkStrands   Framework = "strands"
	FrameworkLangGraph Framework = "langgraph"
)

// ValidFrameworks lists the supported agent frameworks.
var ValidFrameworks = []Framework{FrameworkStrands, FrameworkLangGraph}

var stackNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)

// StackConfig is the top-level configuration for the starter stack.
type StackConfig struct {
	// StackName is the CloudFormation stack name and resource name prefix.
	StackName string `json:"stackName" yaml:"stackName"`

	// Description is the stack description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Framework selects the agent framework for the default agent.
	Framework Framework `json:"framework,omitempty" yaml:"framework,omitempty"`

	// Frontend configures Amplify hosting. Nil disables the frontend stack.
	Frontend *FrontendConfig `json:"frontend,omitempty" yaml:"frontend,omitempty"`

	// Auth configures the Cognito user pool. Nil disables authentication
	// resources (the runtime then relies on IAM only).
	Auth *AuthConfig `json:"auth,omitempty" yaml:"auth,omitempty"`

	// Agents are the AgentCore runtimes to deploy.
	Agents []AgentConfig `json:"agents" yaml:"agents"`

	// Build configures the ECR repository and CodeBuild project that
	// produce the agent container image.
	Build *BuildConfig `json:"build,omitempty" yaml:"build,omitempty"`

	// Upload configures the document upload pipeline (temp bucket,
	// presigned-URL Lambda, REST API). Nil disables it.
	Upload *UploadConfig `json:"upload,omitempty" yaml:"upload,omitempty"`

	// VPC configures optional VPC networking for the runtimes.
	VPC *VPCConfig `json:"vpc,omitempty" yaml:"vpc,omitempty"`

	// IAM configures the runtime execution role.
	IAM *IAMConfig `json:"iam,omitempty" yaml:"iam,omitempty"`

	// Observability configures CloudWatch logging.
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"`

	// Tags are applied to all resources.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// RemovalPolicy is "destroy" or "retain".
	RemovalPolicy string `json:"removalPolicy,omitempty" yaml:"removalPolicy,omitempty"`
}

// FrontendConfig configures the Amplify-hosted chat frontend.
type FrontendConfig struct {
	// AppName is the Amplify app name. Defaults to "{stackName}-frontend".
	AppName string `json:"appName,omitempty" yaml:"appName,omitempty"`

	// BranchName is the deployed branch. Defaults to "main".
	BranchName string `json:"branchName,omitempty" yaml:"branchName,omitempty"`

	// Repository is the source repository URL. Empty means manual deploys
	// (the deploy CLI uploads a build artifact and starts a job).
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`

	// AccessTokenSecretARN is a Secrets Manager ARN holding the repository
	// access token. Required when Repository is set.
	AccessTokenSecretARN string `json:"accessTokenSecretArn,omitempty" yaml:"accessTokenSecretArn,omitempty"`

	// Environment are extra Amplify environment variables. The stack always
	// injects the agent endpoint, framework, and Cognito identifiers.
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// CustomRules are Amplify rewrite rules. Defaults to an SPA rewrite.
	CustomRules []RewriteRule `json:"customRules,omitempty" yaml:"customRules,omitempty"`
}

// RewriteRule is a single Amplify rewrite/redirect rule.
type RewriteRule struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// AuthConfig configures the Cognito user pool protecting the frontend
// and the upload API.
type AuthConfig struct {
	// UserPoolName defaults to "{stackName}-users".
	UserPoolName string `json:"userPoolName,omitempty" yaml:"userPoolName,omitempty"`

	// SelfSignUp enables self service sign-up. Off by default; starter
	// deployments create users with the deploy CLI.
	SelfSignUp bool `json:"selfSignUp,omitempty" yaml:"selfSignUp,omitempty"`

	// PasswordMinLength defaults to 8.
	PasswordMinLength int `json:"passwordMinLength,omitempty" yaml:"passwordMinLength,omitempty"`

	// TokenValidityHours is the ID/access token validity. Defaults to 1.
	TokenValidityHours int `json:"tokenValidityHours,omitempty" yaml:"tokenValidityHours,omitempty"`
}

// AgentConfig configures one AgentCore runtime.
type AgentConfig struct {
	// Name is the agent name. Must be alphanumeric with dashes.
	Name string `json:"name" yaml:"name"`

	// Description is the runtime description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// ContainerImage is the ECR image URI. Empty means the image is
	// produced by the stack's CodeBuild project and tagged "latest".
	ContainerImage string `json:"containerImage,omitempty" yaml:"containerImage,omitempty"`

	// Protocol is the runtime protocol ("HTTP" or "MCP"). Defaults to HTTP.
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`

	// Environment are environment variables passed to the container.
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`

	// SecretsARNs are Secrets Manager ARNs the runtime may read.
	SecretsARNs []string `json:"secretsArns,omitempty" yaml:"secretsArns,omitempty"`

	// MemoryMB and TimeoutSeconds bound the runtime lifecycle.
	MemoryMB       int `json:"memoryMb,omitempty" yaml:"memoryMb,omitempty"`
	TimeoutSeconds int `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`

	// IsDefault marks the agent the frontend talks to.
	IsDefault bool `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// BuildConfig configures the container build pipeline.
type BuildConfig struct {
	// RepositoryName is the ECR repository name. Defaults to
	// "{stackName}-agent".
	RepositoryName string `json:"repositoryName,omitempty" yaml:"repositoryName,omitempty"`

	// ProjectName is the CodeBuild project name. Defaults to
	// "{stackName}-agent-build".
	ProjectName string `json:"projectName,omitempty" yaml:"projectName,omitempty"`

	// SourceBucket and SourceKey locate the zipped agent source the build
	// consumes. Empty means the deploy CLI supplies them at build time.
	SourceBucket string `json:"sourceBucket,omitempty" yaml:"sourceBucket,omitempty"`
	SourceKey    string `json:"sourceKey,omitempty" yaml:"sourceKey,omitempty"`

	// ComputeType is the CodeBuild compute type. Defaults to BUILD_GENERAL1_SMALL.
	ComputeType string `json:"computeType,omitempty" yaml:"computeType,omitempty"`
}

// UploadConfig configures the order document upload pipeline.
type UploadConfig struct {
	// BucketName is the temp bucket name. Empty lets CloudFormation name it.
	BucketName string `json:"bucketName,omitempty" yaml:"bucketName,omitempty"`

	// ExpiryDays is the lifetime of uploaded objects. Defaults to 1.
	ExpiryDays int `json:"expiryDays,omitempty" yaml:"expiryDays,omitempty"`

	// AllowedOrigins are the CORS origins the presigned-URL API accepts.
	// Defaults to the Amplify app domain plus localhost.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`

	// LambdaAssetPath is the directory holding the presigned-URL handler.
	// Defaults to "lambdas/presigned-url".
	LambdaAssetPath string `json:"lambdaAssetPath,omitempty" yaml:"lambdaAssetPath,omitempty"`
}

// VPCConfig configures optional VPC networking for the runtimes.
type VPCConfig struct {
	// VPCID imports an existing VPC instead of creating one.
	VPCID string `json:"vpcId,omitempty" yaml:"vpcId,omitempty"`

	// SubnetIDs are the subnets used with an imported VPC.
	SubnetIDs []string `json:"subnetIds,omitempty" yaml:"subnetIds,omitempty"`

	// SecurityGroupIDs are existing security groups to reuse.
	SecurityGroupIDs []string `json:"securityGroupIds,omitempty" yaml:"securityGroupIds,omitempty"`

	// CreateVPC creates a new VPC with the given CIDR.
	CreateVPC bool   `json:"createVpc,omitempty" yaml:"createVpc,omitempty"`
	VPCCidr   string `json:"vpcCidr,omitempty" yaml:"vpcCidr,omitempty"`
	MaxAZs    int    `json:"maxAzs,omitempty" yaml:"maxAzs,omitempty"`

	// EnableVPCEndpoints adds interface endpoints for Bedrock, ECR,
	// Secrets Manager, and CloudWatch Logs.
	EnableVPCEndpoints bool `json:"enableVpcEndpoints,omitempty" yaml:"enableVpcEndpoints,omitempty"`
}

// IAMConfig configures the runtime execution role.
type IAMConfig struct {
	// RoleARN imports an existing role instead of creating one.
	RoleARN string `json:"roleArn,omitempty" yaml:"roleArn,omitempty"`

	// EnableBedrockAccess grants model invocation permissions.
	EnableBedrockAccess bool `json:"enableBedrockAccess,omitempty" yaml:"enableBedrockAccess,omitempty"`

	// BedrockModelIDs restricts invocation to specific foundation models.
	BedrockModelIDs []string `json:"bedrockModelIds,omitempty" yaml:"bedrockModelIds,omitempty"`

	// AdditionalPolicies are managed policy ARNs attached to the role.
	AdditionalPolicies []string `json:"additionalPolicies,omitempty" yaml:"additionalPolicies,omitempty"`

	// PermissionsBoundaryARN sets a permissions boundary on the role.
	PermissionsBoundaryARN string `json:"permissionsBoundaryArn,omitempty" yaml:"permissionsBoundaryArn,omitempty"`
}

// ObservabilityConfig configures CloudWatch logging for the runtimes.
type ObservabilityConfig struct {
	EnableCloudWatchLogs bool `json:"enableCloudWatchLogs,omitempty" yaml:"enableCloudWatchLogs,omitempty"`
	LogRetentionDays     int  `json:"logRetentionDays,omitempty" yaml:"logRetentionDays,omitempty"`
}

// DefaultAgentConfig returns an agent configuration with defaults applied.
func DefaultAgentConfig(name, containerImage string) AgentConfig {
	return AgentConfig{
		Name:           name,
		ContainerImage: containerImage,
		Protocol:       "HTTP",
		Environment:    make(map[string]string),
		MemoryMB:       512,
		TimeoutSeconds: 900,
	}
}

// DefaultObservabilityConfig returns CloudWatch-only observability with a
// 30 day retention.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		EnableCloudWatchLogs: true,
		LogRetentionDays:     30,
	}
}

// DefaultIAMConfig returns an IAM configuration with Bedrock access enabled.
func DefaultIAMConfig() *IAMConfig {
	return &IAMConfig{EnableBedrockAccess: true}
}

// ApplyDefaults fills unset fields with their defaults.
func (c *StackConfig) ApplyDefaults() {
	if c.Framework == "" {
		c.Framework = FrameworkStrands
	}
	if c.RemovalPolicy == "" {
		c.RemovalPolicy = "destroy"
	}
	if c.IAM == nil {
		c.IAM = DefaultIAMConfig()
	}
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	if c.Frontend != nil {
		if c.Frontend.AppName == "" {
			c.Frontend.AppName = fmt.Sprintf("%s-frontend", c.StackName)
		}
		if c.Frontend.BranchName == "" {
			c.Frontend.BranchName = "main"
		}
		if len(c.Frontend.CustomRules) == 0 {
			// SPA fallback: route everything without a file extension to index.html.
			c.Frontend.CustomRules = []RewriteRule{{
				Source: "</^[^.]+$|\\.(?!(css|gif|ico|jpg|js|png|txt|svg|woff|woff2|ttf|map|json)$)([^.]+$)/>",
				Target: "/index.html",
				Status: "200",
			}}
		}
	}
	if c.Auth != nil {
		if c.Auth.UserPoolName == "" {
			c.Auth.UserPoolName = fmt.Sprintf("%s-users", c.StackName)
		}
		if c.Auth.PasswordMinLength == 0 {
			c.Auth.PasswordMinLength = 8
		}
		if c.Auth.TokenValidityHours == 0 {
			c.Auth.TokenValidityHours = 1
		}
	}
	if c.Build != nil {
		if c.Build.RepositoryName == "" {
			c.Build.RepositoryName = fmt.Sprintf("%s-agent", c.StackName)
		}
		if c.Build.ProjectName == "" {
			c.Build.ProjectName = fmt.Sprintf("%s-agent-build", c.StackName)
		}
		if c.Build.ComputeType == "" {
			c.Build.ComputeType = "BUILD_GENERAL1_SMALL"
		}
	}
	if c.Upload != nil {
		if c.Upload.ExpiryDays == 0 {
			c.Upload.ExpiryDays = 1
		}
		if c.Upload.LambdaAssetPath == "" {
			c.Upload.LambdaAssetPath = "lambdas/presigned-url"
		}
		if len(c.Upload.AllowedOrigins) == 0 {
			c.Upload.AllowedOrigins = []string{"http://localhost:3000"}
		}
	}
	for i := range c.Agents {
		a := &c.Agents[i]
		if a.Protocol == "" {
			a.Protocol = "HTTP"
		}
		if a.Environment == nil {
			a.Environment = make(map[string]string)
		}
		if a.MemoryMB == 0 {
			a.MemoryMB = 512
		}
		if a.TimeoutSeconds == 0 {
			a.TimeoutSeconds = 900
		}
	}
	if len(c.Agents) == 1 {
		c.Agents[0].IsDefault = true
	}
}

// Validate checks the configuration for errors that CloudFormation would
// only surface mid-deploy.
func (c *StackConfig) Validate() error {
	if c.StackName == "" {
		return fmt.Errorf("stackName is required")
	}
	if !stackNameRegex.MatchString(c.StackName) {
		return fmt.Errorf("stackName %q must start with a letter and contain only letters, digits, and dashes", c.StackName)
	}
	valid := false
	for _, fw := range ValidFrameworks {
		if c.Framework == fw {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("framework %q is not supported (valid: %v)", c.Framework, ValidFrameworks)
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}
	defaults := 0
	seen := make(map[string]bool)
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent name is required")
		}
		if !stackNameRegex.MatchString(a.Name) {
			return fmt.Errorf("agent name %q must start with a letter and contain only letters, digits, and dashes", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
		if a.ContainerImage == "" && c.Build == nil {
			return fmt.Errorf("agent %q has no containerImage and no build configuration", a.Name)
		}
		if a.Protocol != "HTTP" && a.Protocol != "MCP" {
			return fmt.Errorf("agent %q protocol %q must be HTTP or MCP", a.Name, a.Protocol)
		}
		if a.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("only one agent may be the default")
	}
	if c.Frontend != nil && c.Frontend.Repository != "" && c.Frontend.AccessTokenSecretARN == "" {
		return fmt.Errorf("frontend.accessTokenSecretArn is required when frontend.repository is set")
	}
	if c.VPC != nil && c.VPC.CreateVPC && c.VPC.VPCCidr == "" {
		return fmt.Errorf("vpc.vpcCidr is required when vpc.createVpc is set")
	}
	if p := c.RemovalPolicy; p != "destroy" && p != "retain" {
		return fmt.Errorf("removalPolicy %q must be destroy or retain", p)
	}
	return nil
}

// DefaultAgent returns the default agent configuration.
func (c *StackConfig) DefaultAgent() *AgentConfig {
	for i := range c.Agents {
		if c.Agents[i].IsDefault {
			return &c.Agents[i]
		}
	}
	if len(c.Agents) > 0 {
		return &c.Agents[0]
	}
	return nil
}

// ParameterName returns the SSM parameter name for a key, namespaced under
// the stack name the way the runtime and clients expect.
func (c *StackConfig) ParameterName(key string) string {
	return fmt.Sprintf("/%s/%s", strings.ToLower(c.StackName), key)
}
