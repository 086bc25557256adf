package client

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	pages    []*ssm.GetParametersByPathOutput
	gotPaths []string
}

func (f *fakeSSM) GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	f.gotPaths = append(f.gotPaths, aws.ToString(params.Path))
	out := f.pages[0]
	f.pages = f.pages[1:]
	return out, nil
}

func param(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func TestDiscover(t *testing.T) {
	api := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
		{
			Parameters: []types.Parameter{
				param("/orderaudit/agent_framework", "strands"),
				param("/orderaudit/runtime_arn", "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/order-audit"),
			},
			NextToken: aws.String("page2"),
		},
		{
			Parameters: []types.Parameter{
				param("/orderaudit/endpoint_name", "DEFAULT"),
				param("/orderaudit/user_pool_id", "us-east-1_abc123"),
				param("/orderaudit/user_pool_client_id", "client123"),
			},
		},
	}}

	dep, err := Discover(context.Background(), api, "OrderAudit", "us-east-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"/orderaudit/", "/orderaudit/"}, api.gotPaths)
	assert.Equal(t, "strands", dep.Framework)
	assert.Equal(t, "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/order-audit", dep.RuntimeARN)
	assert.Equal(t, "DEFAULT", dep.EndpointName)
	assert.Equal(t, "us-east-1_abc123", dep.UserPoolID)
	assert.Equal(t, "client123", dep.UserPoolClientID)
	assert.Equal(t, "us-east-1", dep.Region)
}

func TestDiscoverDefaultsEndpointName(t *testing.T) {
	api := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
		{Parameters: []types.Parameter{param("/demo/runtime_arn", "arn:test")}},
	}}

	dep, err := Discover(context.Background(), api, "demo", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "DEFAULT", dep.EndpointName)
}

func TestDiscoverMissingRuntime(t *testing.T) {
	api := &fakeSSM{pages: []*ssm.GetParametersByPathOutput{
		{Parameters: []types.Parameter{param("/demo/agent_framework", "strands")}},
	}}

	_, err := Discover(context.Background(), api, "demo", "us-east-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runtime_arn")
}
