package client

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// CognitoAPI is the slice of the Cognito IDP client used for sign-in.
type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// IDToken signs a user in with USER_PASSWORD_AUTH and returns the ID
// token the runtime endpoint expects as its bearer token. Challenges
// (forced password change, MFA) are not handled; the user pool is
// provisioned without them.
func IDToken(ctx context.Context, api CognitoAPI, clientID, username, password string) (string, error) {
	out, err := api.InitiateAuth(ctx, &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return "", fmt.Errorf("authenticating %s: %w", username, err)
	}
	if out.ChallengeName != "" {
		return "", fmt.Errorf("authenticating %s: unexpected challenge %s", username, out.ChallengeName)
	}
	if out.AuthenticationResult == nil || out.AuthenticationResult.IdToken == nil {
		return "", fmt.Errorf("authenticating %s: no ID token in response", username)
	}
	return *out.AuthenticationResult.IdToken, nil
}
