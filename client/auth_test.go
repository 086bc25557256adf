package client

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	out *cognitoidentityprovider.InitiateAuthOutput
	got *cognitoidentityprovider.InitiateAuthInput
}

func (f *fakeCognito) InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error) {
	f.got = params
	return f.out, nil
}

func TestIDToken(t *testing.T) {
	api := &fakeCognito{out: &cognitoidentityprovider.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			IdToken: aws.String("id-token-value"),
		},
	}}

	token, err := IDToken(context.Background(), api, "client123", "user@example.com", "hunter2!")
	require.NoError(t, err)

	assert.Equal(t, "id-token-value", token)
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, api.got.AuthFlow)
	assert.Equal(t, "client123", aws.ToString(api.got.ClientId))
	assert.Equal(t, "user@example.com", api.got.AuthParameters["USERNAME"])
	assert.Equal(t, "hunter2!", api.got.AuthParameters["PASSWORD"])
}

func TestIDTokenChallenge(t *testing.T) {
	api := &fakeCognito{out: &cognitoidentityprovider.InitiateAuthOutput{
		ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
	}}

	_, err := IDToken(context.Background(), api, "c", "u", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEW_PASSWORD_REQUIRED")
}

func TestIDTokenEmptyResult(t *testing.T) {
	api := &fakeCognito{out: &cognitoidentityprovider.InitiateAuthOutput{}}

	_, err := IDToken(context.Background(), api, "c", "u", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ID token")
}
