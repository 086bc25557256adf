package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsamplify"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/jsii-runtime-go"
)

// FrontendResources holds the Amplify hosting and Cognito authentication
// resources for the chat frontend.
type FrontendResources struct {
	// App is the Amplify app hosting the frontend.
	App awsamplify.CfnApp

	// Branch is the deployed Amplify branch.
	Branch awsamplify.CfnBranch

	// UserPool is the Cognito user pool protecting the frontend.
	UserPool awscognito.UserPool

	// UserPoolClient is the app client the frontend authenticates with.
	UserPoolClient awscognito.UserPoolClient
}

// createFrontend creates the Cognito user pool and the Amplify app. The
// Amplify environment carries everything the frontend needs at build time:
// the agent framework (which wire format to parse), the runtime ARN, and
// the Cognito identifiers.
func (s *StarterStack) createFrontend() {
	frontendConfig := s.Config.Frontend
	if frontendConfig == nil {
		return
	}

	fr := &FrontendResources{}
	s.Frontend = fr

	s.createUserPool(fr)
	s.createAmplifyApp(fr)
}

// createUserPool creates the Cognito user pool and web client.
func (s *StarterStack) createUserPool(fr *FrontendResources) {
	authConfig := s.Config.Auth
	if authConfig == nil {
		authConfig = &AuthConfig{
			UserPoolName:       fmt.Sprintf("%s-users", s.Config.StackName),
			PasswordMinLength:  8,
			TokenValidityHours: 1,
		}
	}

	fr.UserPool = awscognito.NewUserPool(s.Stack, jsii.String("UserPool"), &awscognito.UserPoolProps{
		UserPoolName:      jsii.String(authConfig.UserPoolName),
		SelfSignUpEnabled: jsii.Bool(authConfig.SelfSignUp),
		SignInAliases: &awscognito.SignInAliases{
			Email: jsii.Bool(true),
		},
		AutoVerify: &awscognito.AutoVerifiedAttrs{
			Email: jsii.Bool(true),
		},
		PasswordPolicy: &awscognito.PasswordPolicy{
			MinLength:        jsii.Number(float64(authConfig.PasswordMinLength)),
			RequireLowercase: jsii.Bool(true),
			RequireUppercase: jsii.Bool(true),
			RequireDigits:    jsii.Bool(true),
			RequireSymbols:   jsii.Bool(false),
		},
		AccountRecovery: awscognito.AccountRecovery_EMAIL_ONLY,
		RemovalPolicy:   s.removalPolicy(),
	})

	validity := awscdk.Duration_Hours(jsii.Number(float64(authConfig.TokenValidityHours)))
	fr.UserPoolClient = fr.UserPool.AddClient(jsii.String("WebClient"), &awscognito.UserPoolClientOptions{
		UserPoolClientName: jsii.String(fmt.Sprintf("%s-web", s.Config.StackName)),
		AuthFlows: &awscognito.AuthFlow{
			UserPassword: jsii.Bool(true),
			UserSrp:      jsii.Bool(true),
		},
		GenerateSecret:      jsii.Bool(false),
		IdTokenValidity:     validity,
		AccessTokenValidity: validity,
	})
}

// createAmplifyApp creates the Amplify app and branch.
func (s *StarterStack) createAmplifyApp(fr *FrontendResources) {
	frontendConfig := s.Config.Frontend

	envVars := map[string]string{
		"AGENT_FRAMEWORK": string(s.Config.Framework),
		"STACK_NAME":      s.Config.StackName,
	}
	if agent := s.Config.DefaultAgent(); agent != nil {
		if runtime, ok := s.Runtimes[agent.Name]; ok {
			envVars["AGENT_RUNTIME_ARN"] = *runtime.AttrAgentRuntimeArn()
		}
	}
	envVars["USER_POOL_ID"] = *fr.UserPool.UserPoolId()
	envVars["USER_POOL_CLIENT_ID"] = *fr.UserPoolClient.UserPoolClientId()
	for k, v := range frontendConfig.Environment {
		envVars[k] = v
	}

	appEnv := make([]*awsamplify.CfnApp_EnvironmentVariableProperty, 0, len(envVars))
	for k, v := range envVars {
		appEnv = append(appEnv, &awsamplify.CfnApp_EnvironmentVariableProperty{
			Name:  jsii.String(k),
			Value: jsii.String(v),
		})
	}

	rules := make([]*awsamplify.CfnApp_CustomRuleProperty, 0, len(frontendConfig.CustomRules))
	for _, r := range frontendConfig.CustomRules {
		rule := &awsamplify.CfnApp_CustomRuleProperty{
			Source: jsii.String(r.Source),
			Target: jsii.String(r.Target),
		}
		if r.Status != "" {
			rule.Status = jsii.String(r.Status)
		}
		rules = append(rules, rule)
	}

	appProps := &awsamplify.CfnAppProps{
		Name:                 jsii.String(frontendConfig.AppName),
		Description:          jsii.String(fmt.Sprintf("Chat frontend for %s", s.Config.StackName)),
		Platform:             jsii.String("WEB"),
		CustomRules:          &rules,
		EnvironmentVariables: &appEnv,
		Tags:                 s.cfnTags(),
	}

	if frontendConfig.Repository != "" {
		appProps.Repository = jsii.String(frontendConfig.Repository)
		appProps.AccessToken = awscdk.SecretValue_SecretsManager(
			jsii.String(frontendConfig.AccessTokenSecretARN), nil,
		).UnsafeUnwrap()
	}

	fr.App = awsamplify.NewCfnApp(s.Stack, jsii.String("AmplifyApp"), appProps)

	fr.Branch = awsamplify.NewCfnBranch(s.Stack, jsii.String("AmplifyBranch"), &awsamplify.CfnBranchProps{
		AppId:           fr.App.AttrAppId(),
		BranchName:      jsii.String(frontendConfig.BranchName),
		Stage:           jsii.String("PRODUCTION"),
		EnableAutoBuild: jsii.Bool(frontendConfig.Repository != ""),
		Tags:            s.cfnTags(),
	})
}

// cfnTags returns the stack tags as CfnTag entries for L1 resources.
func (s *StarterStack) cfnTags() *[]*awscdk.CfnTag {
	if len(s.Config.Tags) == 0 {
		return nil
	}
	tags := make([]*awscdk.CfnTag, 0, len(s.Config.Tags))
	for k, v := range s.Config.Tags {
		tags = append(tags, &awscdk.CfnTag{
			Key:   jsii.String(k),
			Value: jsii.String(v),
		})
	}
	return &tags
}
