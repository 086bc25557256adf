// Package client invokes a deployed AgentCore starter stack: it reads
// the deployment parameters the stack publishes to SSM, authenticates
// against the stack's Cognito user pool, and streams agent responses
// through the framework extractor the stack was deployed with.
package client

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Parameter keys published by the stack under /{stackName}/.
const (
	paramFramework        = "agent_framework"
	paramRuntimeARN       = "runtime_arn"
	paramRuntimeID        = "runtime_id"
	paramEndpointName     = "endpoint_name"
	paramUserPoolID       = "user_pool_id"
	paramUserPoolClientID = "user_pool_client_id"
	paramAmplifyAppID     = "amplify_app_id"
)

// Deployment holds the outputs of a deployed stack, read back from SSM.
type Deployment struct {
	StackName        string
	Region           string
	Framework        string
	RuntimeARN       string
	RuntimeID        string
	EndpointName     string
	UserPoolID       string
	UserPoolClientID string
	AmplifyAppID     string
}

// SSMAPI is the slice of the SSM client used for discovery.
type SSMAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// Discover reads the parameters a stack published under its namespace and
// assembles a Deployment. It fails if the runtime ARN is missing, since
// nothing can be invoked without it; other parameters are optional.
func Discover(ctx context.Context, api SSMAPI, stackName, region string) (*Deployment, error) {
	prefix := "/" + strings.ToLower(stackName) + "/"

	dep := &Deployment{StackName: stackName, Region: region}
	input := &ssm.GetParametersByPathInput{
		Path:      aws.String(prefix),
		Recursive: aws.Bool(true),
	}
	for {
		out, err := api.GetParametersByPath(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("reading parameters under %s: %w", prefix, err)
		}
		for _, p := range out.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			switch path.Base(*p.Name) {
			case paramFramework:
				dep.Framework = *p.Value
			case paramRuntimeARN:
				dep.RuntimeARN = *p.Value
			case paramRuntimeID:
				dep.RuntimeID = *p.Value
			case paramEndpointName:
				dep.EndpointName = *p.Value
			case paramUserPoolID:
				dep.UserPoolID = *p.Value
			case paramUserPoolClientID:
				dep.UserPoolClientID = *p.Value
			case paramAmplifyAppID:
				dep.AmplifyAppID = *p.Value
			}
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}

	if dep.RuntimeARN == "" {
		return nil, fmt.Errorf("stack %s has no %s parameter; is it deployed?", stackName, prefix+paramRuntimeARN)
	}
	if dep.EndpointName == "" {
		dep.EndpointName = "DEFAULT"
	}
	return dep, nil
}
