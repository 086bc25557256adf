package infra

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslogs"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/jsii-runtime-go"
)

// UploadResources holds the document upload pipeline: a short-lived S3
// bucket, the presigned-URL Lambda, and the REST API fronting it.
type UploadResources struct {
	// Bucket is the temporary upload bucket.
	Bucket awss3.Bucket

	// Handler is the presigned-URL Lambda.
	Handler awslambda.Function

	// API is the REST API exposing POST /orders/presigned-url.
	API awsapigateway.RestApi
}

// createUploadPipeline creates the upload bucket, Lambda, and API. The
// Lambda replaces uploaded filenames with UUIDs and returns a short-lived
// presigned GET URL the agent consumes.
func (s *StarterStack) createUploadPipeline() {
	uploadConfig := s.Config.Upload
	if uploadConfig == nil {
		return
	}

	ur := &UploadResources{}
	s.Upload = ur

	bucketProps := &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
		RemovalPolicy:     s.removalPolicy(),
		AutoDeleteObjects: jsii.Bool(s.Config.RemovalPolicy != "retain"),
		LifecycleRules: &[]*awss3.LifecycleRule{
			{
				Prefix:     jsii.String("temp/"),
				Expiration: awscdk.Duration_Days(jsii.Number(float64(uploadConfig.ExpiryDays))),
			},
		},
		Cors: &[]*awss3.CorsRule{
			{
				AllowedMethods: &[]awss3.HttpMethods{awss3.HttpMethods_GET, awss3.HttpMethods_PUT},
				AllowedOrigins: jsii.Strings(uploadConfig.AllowedOrigins...),
				AllowedHeaders: jsii.Strings("*"),
			},
		},
	}
	if uploadConfig.BucketName != "" {
		bucketProps.BucketName = jsii.String(uploadConfig.BucketName)
	}
	ur.Bucket = awss3.NewBucket(s.Stack, jsii.String("TempBucket"), bucketProps)

	ur.Handler = awslambda.NewFunction(s.Stack, jsii.String("PresignedUrlFn"), &awslambda.FunctionProps{
		FunctionName: jsii.String(fmt.Sprintf("%s-presigned-url", s.Config.StackName)),
		Runtime:      awslambda.Runtime_PYTHON_3_13(),
		Handler:      jsii.String("index.handler"),
		Code:         awslambda.Code_FromAsset(jsii.String(uploadConfig.LambdaAssetPath), nil),
		Timeout:      awscdk.Duration_Seconds(jsii.Number(30)),
		MemorySize:   jsii.Number(256),
		Environment: &map[string]*string{
			"TEMP_BUCKET":          ur.Bucket.BucketName(),
			"CORS_ALLOWED_ORIGINS": jsii.String(joinOrigins(uploadConfig.AllowedOrigins)),
		},
		LogRetention: awslogs.RetentionDays_ONE_WEEK,
	})
	ur.Bucket.GrantReadWrite(ur.Handler, nil)

	ur.API = awsapigateway.NewRestApi(s.Stack, jsii.String("UploadApi"), &awsapigateway.RestApiProps{
		RestApiName: jsii.String(fmt.Sprintf("%s-upload", s.Config.StackName)),
		Description: jsii.String("Presigned upload URLs for order documents"),
		DefaultCorsPreflightOptions: &awsapigateway.CorsOptions{
			AllowOrigins: jsii.Strings(uploadConfig.AllowedOrigins...),
			AllowMethods: jsii.Strings("POST", "OPTIONS"),
			AllowHeaders: jsii.Strings("Content-Type", "Authorization"),
		},
	})

	var methodOptions *awsapigateway.MethodOptions
	if s.Frontend != nil && s.Frontend.UserPool != nil {
		authorizer := awsapigateway.NewCognitoUserPoolsAuthorizer(s.Stack, jsii.String("UploadAuthorizer"),
			&awsapigateway.CognitoUserPoolsAuthorizerProps{
				CognitoUserPools: &[]awscognito.IUserPool{s.Frontend.UserPool},
			})
		methodOptions = &awsapigateway.MethodOptions{
			AuthorizationType: awsapigateway.AuthorizationType_COGNITO,
			Authorizer:        authorizer,
		}
	}

	resource := ur.API.Root().
		AddResource(jsii.String("orders"), nil).
		AddResource(jsii.String("presigned-url"), nil)
	resource.AddMethod(jsii.String("POST"),
		awsapigateway.NewLambdaIntegration(ur.Handler, nil), methodOptions)
}

func joinOrigins(origins []string) string {
	return strings.Join(origins, ",")
}
