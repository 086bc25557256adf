package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsbedrockagentcore"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awssecretsmanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsssm"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// StarterStack is the CDK stack for the AgentCore starter kit. It deploys
// the Amplify-hosted chat frontend, Cognito authentication, the container
// build pipeline, the AgentCore runtimes, and the upload API.
type StarterStack struct {
	awscdk.Stack

	// Config is the stack configuration.
	Config StackConfig

	// Frontend holds the Amplify and Cognito resources, nil when disabled.
	Frontend *FrontendResources

	// Build holds the ECR repository and CodeBuild project, nil when disabled.
	Build *BuildResources

	// Upload holds the upload pipeline resources, nil when disabled.
	Upload *UploadResources

	// VPC is the VPC used by the runtimes, nil for public networking.
	VPC awsec2.IVpc

	// SecurityGroup is the security group for runtime communication.
	SecurityGroup awsec2.ISecurityGroup

	// ExecutionRole is the IAM role assumed by the runtimes.
	ExecutionRole awsiam.IRole

	// LogGroup is the CloudWatch log group for runtime logs.
	LogGroup awslogs.ILogGroup

	// Runtimes contains the AgentCore runtime resources by agent name.
	Runtimes map[string]awsbedrockagentcore.CfnRuntime

	// Endpoints contains the AgentCore runtime endpoints by agent name.
	Endpoints map[string]awsbedrockagentcore.CfnRuntimeEndpoint
}

// NewStarterStack creates the starter stack from a validated configuration.
func NewStarterStack(scope constructs.Construct, id string, config StackConfig) *StarterStack {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("invalid stack configuration: %v", err))
	}

	stack := awscdk.NewStack(scope, jsii.String(id), &awscdk.StackProps{
		StackName:   jsii.String(config.StackName),
		Description: jsii.String(config.Description),
		Tags:        convertTags(config.Tags),
	})

	s := &StarterStack{
		Stack:     stack,
		Config:    config,
		Runtimes:  make(map[string]awsbedrockagentcore.CfnRuntime),
		Endpoints: make(map[string]awsbedrockagentcore.CfnRuntimeEndpoint),
	}

	// Shared infrastructure
	s.createVPC()
	s.createSecurityGroup()
	s.createIAMRole()
	s.createLogGroup()

	// Backend: build pipeline, then the runtimes that consume its image.
	s.createBuildPipeline()
	for _, agentConfig := range config.Agents {
		s.createAgentRuntime(agentConfig)
		s.createRuntimeEndpoint(agentConfig)
	}

	// Frontend last: the Amplify app bakes in the runtime and Cognito
	// identifiers as build-time environment variables.
	s.createFrontend()

	// Upload pipeline depends on Cognito for API authorization.
	s.createUploadPipeline()

	s.publishParameters()
	s.addOutputs()

	return s
}

// createVPC creates or imports the VPC. Runtimes default to public
// networking when no VPC is configured.
func (s *StarterStack) createVPC() {
	vpcConfig := s.Config.VPC
	if vpcConfig == nil {
		return
	}

	if vpcConfig.VPCID != "" {
		s.VPC = awsec2.Vpc_FromLookup(s.Stack, jsii.String("VPC"), &awsec2.VpcLookupOptions{
			VpcId: jsii.String(vpcConfig.VPCID),
		})
		return
	}

	if !vpcConfig.CreateVPC {
		return
	}

	maxAZs := vpcConfig.MaxAZs
	if maxAZs == 0 {
		maxAZs = 2
	}

	s.VPC = awsec2.NewVpc(s.Stack, jsii.String("VPC"), &awsec2.VpcProps{
		VpcName:            jsii.String(fmt.Sprintf("%s-vpc", s.Config.StackName)),
		IpAddresses:        awsec2.IpAddresses_Cidr(jsii.String(vpcConfig.VPCCidr)),
		MaxAzs:             jsii.Number(float64(maxAZs)),
		NatGateways:        jsii.Number(1),
		EnableDnsHostnames: jsii.Bool(true),
		EnableDnsSupport:   jsii.Bool(true),
		SubnetConfiguration: &[]*awsec2.SubnetConfiguration{
			{
				Name:       jsii.String("Public"),
				SubnetType: awsec2.SubnetType_PUBLIC,
				CidrMask:   jsii.Number(24),
			},
			{
				Name:       jsii.String("Private"),
				SubnetType: awsec2.SubnetType_PRIVATE_WITH_EGRESS,
				CidrMask:   jsii.Number(24),
			},
		},
	})

	if vpcConfig.EnableVPCEndpoints {
		s.createVPCEndpoints()
	}
}

// createVPCEndpoints adds interface endpoints so runtimes in private
// subnets reach AWS services without NAT traffic.
func (s *StarterStack) createVPCEndpoints() {
	vpc, ok := s.VPC.(awsec2.Vpc)
	if !ok {
		return // imported VPCs manage their own endpoints
	}

	vpc.AddInterfaceEndpoint(jsii.String("BedrockEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_BEDROCK(),
	})
	vpc.AddInterfaceEndpoint(jsii.String("BedrockRuntimeEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_BEDROCK_RUNTIME(),
	})
	vpc.AddInterfaceEndpoint(jsii.String("SecretsManagerEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_SECRETS_MANAGER(),
	})
	vpc.AddInterfaceEndpoint(jsii.String("LogsEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_CLOUDWATCH_LOGS(),
	})
	vpc.AddInterfaceEndpoint(jsii.String("EcrApiEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_ECR(),
	})
	vpc.AddInterfaceEndpoint(jsii.String("EcrDkrEndpoint"), &awsec2.InterfaceVpcEndpointOptions{
		Service: awsec2.InterfaceVpcEndpointAwsService_ECR_DOCKER(),
	})
	vpc.AddGatewayEndpoint(jsii.String("S3Endpoint"), &awsec2.GatewayVpcEndpointOptions{
		Service: awsec2.GatewayVpcEndpointAwsService_S3(),
	})
}

// createSecurityGroup creates the security group for runtime communication.
func (s *StarterStack) createSecurityGroup() {
	if s.VPC == nil {
		return
	}

	if s.Config.VPC != nil && len(s.Config.VPC.SecurityGroupIDs) > 0 {
		s.SecurityGroup = awsec2.SecurityGroup_FromSecurityGroupId(
			s.Stack,
			jsii.String("SecurityGroup"),
			jsii.String(s.Config.VPC.SecurityGroupIDs[0]),
			&awsec2.SecurityGroupImportOptions{},
		)
		return
	}

	s.SecurityGroup = awsec2.NewSecurityGroup(s.Stack, jsii.String("SecurityGroup"), &awsec2.SecurityGroupProps{
		Vpc:               s.VPC,
		SecurityGroupName: jsii.String(fmt.Sprintf("%s-sg", s.Config.StackName)),
		Description:       jsii.String(fmt.Sprintf("Security group for %s agent runtimes", s.Config.StackName)),
		AllowAllOutbound:  jsii.Bool(true),
	})
}

// createIAMRole creates the execution role for the runtimes.
func (s *StarterStack) createIAMRole() {
	iamConfig := s.Config.IAM

	if iamConfig.RoleARN != "" {
		s.ExecutionRole = awsiam.Role_FromRoleArn(
			s.Stack,
			jsii.String("ExecutionRole"),
			jsii.String(iamConfig.RoleARN),
			&awsiam.FromRoleArnOptions{},
		)
		return
	}

	role := awsiam.NewRole(s.Stack, jsii.String("ExecutionRole"), &awsiam.RoleProps{
		RoleName:    jsii.String(fmt.Sprintf("%s-execution-role", s.Config.StackName)),
		Description: jsii.String(fmt.Sprintf("Execution role for %s agent runtimes", s.Config.StackName)),
		AssumedBy:   awsiam.NewServicePrincipal(jsii.String("bedrock-agentcore.amazonaws.com"), nil),
	})

	if iamConfig.EnableBedrockAccess {
		if len(iamConfig.BedrockModelIDs) > 0 {
			resources := make([]*string, len(iamConfig.BedrockModelIDs))
			for i, modelID := range iamConfig.BedrockModelIDs {
				resources[i] = jsii.String(fmt.Sprintf("arn:aws:bedrock:*:*:foundation-model/%s", modelID))
			}
			role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Effect:    awsiam.Effect_ALLOW,
				Actions:   jsii.Strings("bedrock:InvokeModel", "bedrock:InvokeModelWithResponseStream"),
				Resources: &resources,
			}))
		} else {
			role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
				Effect:    awsiam.Effect_ALLOW,
				Actions:   jsii.Strings("bedrock:InvokeModel", "bedrock:InvokeModelWithResponseStream"),
				Resources: jsii.Strings("arn:aws:bedrock:*:*:foundation-model/*", "arn:aws:bedrock:*:*:inference-profile/*"),
			}))
		}
	}

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"logs:CreateLogGroup",
			"logs:CreateLogStream",
			"logs:PutLogEvents",
		),
		Resources: jsii.Strings("arn:aws:logs:*:*:*"),
	}))

	// Runtimes read deployment parameters published by publishParameters.
	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect:    awsiam.Effect_ALLOW,
		Actions:   jsii.Strings("ssm:GetParameter"),
		Resources: jsii.Strings(fmt.Sprintf("arn:aws:ssm:*:*:parameter%s", s.Config.ParameterName("*"))),
	}))

	for _, agent := range s.Config.Agents {
		for _, secretARN := range agent.SecretsARNs {
			secret := awssecretsmanager.Secret_FromSecretCompleteArn(
				s.Stack,
				jsii.String(fmt.Sprintf("Secret-%s-%s", agent.Name, secretARN)),
				jsii.String(secretARN),
			)
			secret.GrantRead(role, nil)
		}
	}

	role.AddToPolicy(awsiam.NewPolicyStatement(&awsiam.PolicyStatementProps{
		Effect: awsiam.Effect_ALLOW,
		Actions: jsii.Strings(
			"ecr:GetAuthorizationToken",
			"ecr:BatchCheckLayerAvailability",
			"ecr:GetDownloadUrlForLayer",
			"ecr:BatchGetImage",
		),
		Resources: jsii.Strings("*"),
	}))

	for _, policyARN := range iamConfig.AdditionalPolicies {
		role.AddManagedPolicy(awsiam.ManagedPolicy_FromManagedPolicyArn(
			s.Stack,
			jsii.String(fmt.Sprintf("Policy-%s", policyARN)),
			jsii.String(policyARN),
		))
	}

	if iamConfig.PermissionsBoundaryARN != "" {
		awsiam.PermissionsBoundary_Of(role).Apply(
			awsiam.ManagedPolicy_FromManagedPolicyArn(
				s.Stack,
				jsii.String("PermissionsBoundary"),
				jsii.String(iamConfig.PermissionsBoundaryARN),
			),
		)
	}

	s.ExecutionRole = role
}

// createLogGroup creates the CloudWatch log group for runtime logs.
func (s *StarterStack) createLogGroup() {
	if s.Config.Observability == nil || !s.Config.Observability.EnableCloudWatchLogs {
		return
	}

	s.LogGroup = awslogs.NewLogGroup(s.Stack, jsii.String("LogGroup"), &awslogs.LogGroupProps{
		LogGroupName:  jsii.String(fmt.Sprintf("/aws/agentcore/%s", s.Config.StackName)),
		Retention:     retentionFromDays(s.Config.Observability.LogRetentionDays),
		RemovalPolicy: s.removalPolicy(),
	})
}

// createAgentRuntime creates the AWS::BedrockAgentCore::Runtime resource.
func (s *StarterStack) createAgentRuntime(config AgentConfig) {
	envVars := make(map[string]*string)
	for k, v := range config.Environment {
		envVars[k] = jsii.String(v)
	}
	envVars["STACK_NAME"] = jsii.String(s.Config.StackName)
	envVars["AGENT_FRAMEWORK"] = jsii.String(string(s.Config.Framework))
	envVars["AGENT_NAME"] = jsii.String(config.Name)
	if config.IsDefault {
		envVars["DEFAULT_AGENT"] = jsii.String(config.Name)
	}

	runtimeProps := &awsbedrockagentcore.CfnRuntimeProps{
		AgentRuntimeName: jsii.String(config.Name),
		RoleArn:          s.ExecutionRole.RoleArn(),
		Description:      jsii.String(config.Description),

		AgentRuntimeArtifact: &awsbedrockagentcore.CfnRuntime_AgentRuntimeArtifactProperty{
			ContainerConfiguration: &awsbedrockagentcore.CfnRuntime_ContainerConfigurationProperty{
				ContainerUri: jsii.String(s.containerURI(config)),
			},
		},

		NetworkConfiguration:  s.networkConfiguration(),
		EnvironmentVariables:  &envVars,
		ProtocolConfiguration: jsii.String(config.Protocol),
		Tags:                  s.agentTags(config),
	}

	if config.TimeoutSeconds > 0 {
		runtimeProps.LifecycleConfiguration = &awsbedrockagentcore.CfnRuntime_LifecycleConfigurationProperty{
			MaxLifetime: jsii.Number(float64(config.TimeoutSeconds)),
		}
	}

	runtime := awsbedrockagentcore.NewCfnRuntime(s.Stack,
		jsii.String(fmt.Sprintf("Runtime-%s", config.Name)),
		runtimeProps,
	)
	if s.Build != nil {
		// Image must exist before the runtime starts pulling it.
		runtime.Node().AddDependency(s.Build.Project)
	}

	s.Runtimes[config.Name] = runtime
}

// createRuntimeEndpoint creates the AWS::BedrockAgentCore::RuntimeEndpoint.
func (s *StarterStack) createRuntimeEndpoint(config AgentConfig) {
	runtime := s.Runtimes[config.Name]

	endpoint := awsbedrockagentcore.NewCfnRuntimeEndpoint(s.Stack,
		jsii.String(fmt.Sprintf("Endpoint-%s", config.Name)),
		&awsbedrockagentcore.CfnRuntimeEndpointProps{
			Name:           jsii.String(fmt.Sprintf("%s-endpoint", config.Name)),
			AgentRuntimeId: runtime.AttrAgentRuntimeId(),
			Description:    jsii.String(fmt.Sprintf("Endpoint for agent %s", config.Name)),
			Tags:           s.agentTags(config),
		},
	)

	s.Endpoints[config.Name] = endpoint
}

// containerURI resolves the container image for an agent, falling back to
// the stack's own build pipeline output.
func (s *StarterStack) containerURI(config AgentConfig) string {
	if config.ContainerImage != "" {
		return config.ContainerImage
	}
	return fmt.Sprintf("%s:latest", *s.Build.Repository.RepositoryUri())
}

// networkConfiguration returns VPC networking when configured, public
// networking otherwise.
func (s *StarterStack) networkConfiguration() interface{} {
	if s.VPC == nil {
		return &awsbedrockagentcore.CfnRuntime_NetworkConfigurationProperty{
			NetworkMode: jsii.String("PUBLIC"),
		}
	}
	return &awsbedrockagentcore.CfnRuntime_NetworkConfigurationProperty{
		NetworkMode: jsii.String("VPC"),
		NetworkModeConfig: &awsbedrockagentcore.CfnRuntime_VpcConfigProperty{
			SecurityGroups: s.securityGroupIDs(),
			Subnets:        s.privateSubnetIDs(),
		},
	}
}

// privateSubnetIDs returns the private subnet IDs for VPC networking.
func (s *StarterStack) privateSubnetIDs() *[]*string {
	if s.VPC == nil {
		return &[]*string{}
	}
	subnets := s.VPC.PrivateSubnets()
	if subnets == nil {
		return &[]*string{}
	}
	ids := make([]*string, len(*subnets))
	for i, subnet := range *subnets {
		ids[i] = subnet.SubnetId()
	}
	return &ids
}

// securityGroupIDs returns the security group IDs for VPC networking.
func (s *StarterStack) securityGroupIDs() *[]*string {
	if s.SecurityGroup == nil {
		return &[]*string{}
	}
	return &[]*string{s.SecurityGroup.SecurityGroupId()}
}

// publishParameters writes deployment identifiers to SSM Parameter Store
// so the runtimes, the chat client, and the deploy CLI can discover the
// stack without parsing CloudFormation outputs.
func (s *StarterStack) publishParameters() {
	param := func(id, key string, value *string) {
		awsssm.NewStringParameter(s.Stack, jsii.String(id), &awsssm.StringParameterProps{
			ParameterName: jsii.String(s.Config.ParameterName(key)),
			StringValue:   value,
		})
	}

	param("FrameworkParam", "agent_framework", jsii.String(string(s.Config.Framework)))

	if agent := s.Config.DefaultAgent(); agent != nil {
		param("RuntimeArnParam", "runtime_arn", s.Runtimes[agent.Name].AttrAgentRuntimeArn())
		param("RuntimeIdParam", "runtime_id", s.Runtimes[agent.Name].AttrAgentRuntimeId())
		param("EndpointNameParam", "endpoint_name", jsii.String(fmt.Sprintf("%s-endpoint", agent.Name)))
	}

	if s.Frontend != nil {
		param("UserPoolIdParam", "user_pool_id", s.Frontend.UserPool.UserPoolId())
		param("UserPoolClientIdParam", "user_pool_client_id", s.Frontend.UserPoolClient.UserPoolClientId())
		param("AmplifyAppIdParam", "amplify_app_id", s.Frontend.App.AttrAppId())
	}

	if s.Build != nil {
		param("BuildProjectParam", "build_project", s.Build.Project.ProjectName())
		param("EcrRepositoryParam", "ecr_repository_uri", s.Build.Repository.RepositoryUri())
	}

	if s.Upload != nil {
		param("UploadApiParam", "upload_api_url", s.Upload.API.Url())
	}
}

// addOutputs adds CloudFormation outputs.
func (s *StarterStack) addOutputs() {
	out := func(id string, value *string, description string) {
		awscdk.NewCfnOutput(s.Stack, jsii.String(id), &awscdk.CfnOutputProps{
			Value:       value,
			Description: jsii.String(description),
		})
	}

	for name, runtime := range s.Runtimes {
		out(fmt.Sprintf("Agent-%s-RuntimeArn", name), runtime.AttrAgentRuntimeArn(),
			fmt.Sprintf("Runtime ARN for agent %s", name))
		out(fmt.Sprintf("Agent-%s-RuntimeId", name), runtime.AttrAgentRuntimeId(),
			fmt.Sprintf("Runtime ID for agent %s", name))
	}

	if s.Frontend != nil {
		out("AmplifyAppId", s.Frontend.App.AttrAppId(), "Amplify app ID")
		out("AmplifyDefaultDomain", s.Frontend.App.AttrDefaultDomain(), "Amplify default domain")
		out("UserPoolId", s.Frontend.UserPool.UserPoolId(), "Cognito user pool ID")
		out("UserPoolClientId", s.Frontend.UserPoolClient.UserPoolClientId(), "Cognito user pool client ID")
	}

	if s.Build != nil {
		out("EcrRepositoryUri", s.Build.Repository.RepositoryUri(), "ECR repository URI for the agent image")
		out("BuildProjectName", s.Build.Project.ProjectName(), "CodeBuild project building the agent image")
	}

	if s.Upload != nil {
		out("UploadApiUrl", s.Upload.API.Url(), "Upload API base URL")
		out("TempBucketName", s.Upload.Bucket.BucketName(), "Temporary upload bucket")
	}

	if s.ExecutionRole != nil {
		out("ExecutionRoleARN", s.ExecutionRole.RoleArn(), "Runtime execution role ARN")
	}
	if s.VPC != nil {
		out("VPCID", s.VPC.VpcId(), "VPC ID")
	}
	if s.LogGroup != nil {
		out("LogGroupName", s.LogGroup.LogGroupName(), "CloudWatch log group name")
	}
}

// removalPolicy maps the config value to a CDK removal policy.
func (s *StarterStack) removalPolicy() awscdk.RemovalPolicy {
	if s.Config.RemovalPolicy == "retain" {
		return awscdk.RemovalPolicy_RETAIN
	}
	return awscdk.RemovalPolicy_DESTROY
}

// agentTags returns the tags for an agent resource.
func (s *StarterStack) agentTags(config AgentConfig) *map[string]*string {
	tags := make(map[string]*string)
	for k, v := range s.Config.Tags {
		tags[k] = jsii.String(v)
	}
	tags["Agent"] = jsii.String(config.Name)
	return &tags
}

// retentionFromDays maps a day count to the nearest CloudWatch retention.
func retentionFromDays(days int) awslogs.RetentionDays {
	if days == 0 {
		days = 30
	}
	switch {
	case days <= 1:
		return awslogs.RetentionDays_ONE_DAY
	case days <= 7:
		return awslogs.RetentionDays_ONE_WEEK
	case days <= 14:
		return awslogs.RetentionDays_TWO_WEEKS
	case days <= 30:
		return awslogs.RetentionDays_ONE_MONTH
	case days <= 90:
		return awslogs.RetentionDays_THREE_MONTHS
	case days <= 180:
		return awslogs.RetentionDays_SIX_MONTHS
	case days <= 365:
		return awslogs.RetentionDays_ONE_YEAR
	default:
		return awslogs.RetentionDays_INFINITE
	}
}

// convertTags converts a map to CDK tags.
func convertTags(tags map[string]string) *map[string]*string {
	if tags == nil {
		return nil
	}
	result := make(map[string]*string)
	for k, v := range tags {
		result[k] = jsii.String(v)
	}
	return &result
}
