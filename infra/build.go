package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscodebuild"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsecr"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/jsii-runtime-go"
)

// BuildResources holds the container build pipeline: the ECR repository
// the runtimes pull from, and the CodeBuild project that fills it.
type BuildResources struct {
	// Repository is the ECR repository for the agent image.
	Repository awsecr.Repository

	// Project is the CodeBuild project building and pushing the image.
	Project awscodebuild.Project
}

// createBuildPipeline creates the ECR repository and the CodeBuild project.
// AgentCore runtimes require linux/arm64 images, so the project runs on an
// ARM build fleet rather than emulating the platform.
func (s *StarterStack) createBuildPipeline() {
	buildConfig := s.Config.Build
	if buildConfig == nil {
		return
	}

	br := &BuildResources{}
	s.Build = br

	br.Repository = awsecr.NewRepository(s.Stack, jsii.String("AgentRepository"), &awsecr.RepositoryProps{
		RepositoryName:  jsii.String(buildConfig.RepositoryName),
		ImageScanOnPush: jsii.Bool(true),
		RemovalPolicy:   s.removalPolicy(),
		EmptyOnDelete:   jsii.Bool(s.Config.RemovalPolicy != "retain"),
	})

	props := &awscodebuild.ProjectProps{
		ProjectName: jsii.String(buildConfig.ProjectName),
		Description: jsii.String(fmt.Sprintf("Builds the %s agent container image", s.Config.StackName)),
		Environment: &awscodebuild.BuildEnvironment{
			BuildImage:  awscodebuild.LinuxArmBuildImage_AMAZON_LINUX_2023_STANDARD_3_0(),
			ComputeType: computeTypeFromString(buildConfig.ComputeType),
			Privileged:  jsii.Bool(true),
		},
		EnvironmentVariables: &map[string]*awscodebuild.BuildEnvironmentVariable{
			"ECR_REPO_URI": {Value: br.Repository.RepositoryUri()},
			"IMAGE_TAG":    {Value: jsii.String("latest")},
		},
		BuildSpec: awscodebuild.BuildSpec_FromObject(&map[string]interface{}{
			"version": "0.2",
			"phases": map[string]interface{}{
				"pre_build": map[string]interface{}{
					"commands": []string{
						"aws ecr get-login-password | docker login --username AWS --password-stdin ${ECR_REPO_URI%%/*}",
					},
				},
				"build": map[string]interface{}{
					"commands": []string{
						"docker build --platform linux/arm64 -t $ECR_REPO_URI:$IMAGE_TAG .",
					},
				},
				"post_build": map[string]interface{}{
					"commands": []string{
						"docker push $ECR_REPO_URI:$IMAGE_TAG",
					},
				},
			},
		}),
	}

	// With no source configured the deploy CLI supplies one per build via
	// StartBuild source overrides.
	if buildConfig.SourceBucket != "" {
		props.Source = awscodebuild.Source_S3(&awscodebuild.S3SourceProps{
			Bucket: awss3.Bucket_FromBucketName(s.Stack, jsii.String("BuildSourceBucket"), jsii.String(buildConfig.SourceBucket)),
			Path:   jsii.String(buildConfig.SourceKey),
		})
	}

	br.Project = awscodebuild.NewProject(s.Stack, jsii.String("AgentBuild"), props)
	br.Repository.GrantPullPush(br.Project)
}

// computeTypeFromString maps a CodeBuild compute type name to the enum.
func computeTypeFromString(name string) awscodebuild.ComputeType {
	switch name {
	case "BUILD_GENERAL1_MEDIUM":
		return awscodebuild.ComputeType_MEDIUM
	case "BUILD_GENERAL1_LARGE":
		return awscodebuild.ComputeType_LARGE
	default:
		return awscodebuild.ComputeType_SMALL
	}
}
