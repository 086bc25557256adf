package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/amplify"
	amplifytypes "github.com/aws/aws-sdk-go-v2/service/amplify/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	cbtypes "github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cenkalti/backoff/v5"

	"github.com/genaiid/agentcore-starter/infra"
)

// pollInterval shapes all deployment waiters: start at 5s, cap at 30s.
func pollBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5 * time.Second
	bo.MaxInterval = 30 * time.Second
	return bo
}

// waitForStack polls CloudFormation until the stack settles. cdk deploy
// normally blocks until completion itself; this guards the cases where
// it returns early or the stack was updated out of band.
func waitForStack(ctx context.Context, cfg aws.Config, stackName string) error {
	client := cloudformation.NewFromConfig(cfg)

	fmt.Printf("Waiting for stack %s...\n", stackName)
	status, err := backoff.Retry(ctx, func() (cfntypes.StackStatus, error) {
		out, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
			StackName: aws.String(stackName),
		})
		if err != nil {
			return "", backoff.Permanent(err)
		}
		if len(out.Stacks) == 0 {
			return "", backoff.Permanent(fmt.Errorf("stack %s not found", stackName))
		}

		status := out.Stacks[0].StackStatus
		switch status {
		case cfntypes.StackStatusCreateComplete,
			cfntypes.StackStatusUpdateComplete,
			cfntypes.StackStatusUpdateCompleteCleanupInProgress:
			return status, nil
		case cfntypes.StackStatusCreateFailed,
			cfntypes.StackStatusRollbackComplete,
			cfntypes.StackStatusRollbackFailed,
			cfntypes.StackStatusUpdateRollbackComplete,
			cfntypes.StackStatusUpdateRollbackFailed:
			reason := aws.ToString(out.Stacks[0].StackStatusReason)
			return "", backoff.Permanent(fmt.Errorf("stack %s failed: %s %s", stackName, status, reason))
		default:
			return "", fmt.Errorf("stack %s still %s", stackName, status)
		}
	}, backoff.WithBackOff(pollBackOff()), backoff.WithMaxElapsedTime(45*time.Minute))
	if err != nil {
		return err
	}

	fmt.Printf("Stack %s: %s\n", stackName, status)
	return nil
}

// runContainerBuild starts the CodeBuild project that produces the agent
// container image and waits for it to finish.
func runContainerBuild(ctx context.Context, cfg aws.Config, projectName string) error {
	client := codebuild.NewFromConfig(cfg)

	start, err := client.StartBuild(ctx, &codebuild.StartBuildInput{
		ProjectName: aws.String(projectName),
	})
	if err != nil {
		return fmt.Errorf("starting build %s: %w", projectName, err)
	}
	buildID := aws.ToString(start.Build.Id)
	fmt.Printf("Build started: %s\n", buildID)

	_, err = backoff.Retry(ctx, func() (cbtypes.StatusType, error) {
		out, err := client.BatchGetBuilds(ctx, &codebuild.BatchGetBuildsInput{
			Ids: []string{buildID},
		})
		if err != nil {
			return "", backoff.Permanent(err)
		}
		if len(out.Builds) == 0 {
			return "", backoff.Permanent(fmt.Errorf("build %s not found", buildID))
		}

		switch status := out.Builds[0].BuildStatus; status {
		case cbtypes.StatusTypeSucceeded:
			return status, nil
		case cbtypes.StatusTypeFailed, cbtypes.StatusTypeFault,
			cbtypes.StatusTypeStopped, cbtypes.StatusTypeTimedOut:
			return "", backoff.Permanent(fmt.Errorf("build %s ended %s", buildID, status))
		default:
			phase := aws.ToString(out.Builds[0].CurrentPhase)
			return "", fmt.Errorf("build %s in phase %s", buildID, phase)
		}
	}, backoff.WithBackOff(pollBackOff()), backoff.WithMaxElapsedTime(30*time.Minute))
	if err != nil {
		return err
	}

	fmt.Println("Build succeeded")
	return nil
}

// releaseFrontend starts an Amplify release job on the configured branch
// and waits for it. Only applies to repository-connected apps; manual
// apps deploy through their own CI.
func releaseFrontend(ctx context.Context, cfg aws.Config, stackCfg *infra.StackConfig) error {
	appID, err := readParameter(ctx, cfg, stackCfg.ParameterName("amplify_app_id"))
	if err != nil {
		return fmt.Errorf("resolving Amplify app: %w", err)
	}

	client := amplify.NewFromConfig(cfg)
	branch := stackCfg.Frontend.BranchName

	start, err := client.StartJob(ctx, &amplify.StartJobInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
		JobType:    amplifytypes.JobTypeRelease,
	})
	if err != nil {
		return fmt.Errorf("starting release on %s/%s: %w", appID, branch, err)
	}
	jobID := aws.ToString(start.JobSummary.JobId)
	fmt.Printf("Release job started: %s\n", jobID)

	_, err = backoff.Retry(ctx, func() (amplifytypes.JobStatus, error) {
		out, err := client.GetJob(ctx, &amplify.GetJobInput{
			AppId:      aws.String(appID),
			BranchName: aws.String(branch),
			JobId:      aws.String(jobID),
		})
		if err != nil {
			return "", backoff.Permanent(err)
		}

		switch status := out.Job.Summary.Status; status {
		case amplifytypes.JobStatusSucceed:
			return status, nil
		case amplifytypes.JobStatusFailed, amplifytypes.JobStatusCancelled:
			return "", backoff.Permanent(fmt.Errorf("release job %s ended %s", jobID, status))
		default:
			return "", fmt.Errorf("release job %s still %s", jobID, status)
		}
	}, backoff.WithBackOff(pollBackOff()), backoff.WithMaxElapsedTime(20*time.Minute))
	if err != nil {
		return err
	}

	fmt.Println("Frontend released")
	return nil
}

func readParameter(ctx context.Context, cfg aws.Config, name string) (string, error) {
	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{Name: aws.String(name)})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Parameter.Value), nil
}

// printStackOutputs dumps the CloudFormation outputs of the deployed
// stack, same information the CDK prints at the end of a deploy.
func printStackOutputs(ctx context.Context, cfg aws.Config, stackName string) error {
	client := cloudformation.NewFromConfig(cfg)
	out, err := client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return err
	}
	if len(out.Stacks) == 0 {
		return fmt.Errorf("stack %s not found", stackName)
	}

	fmt.Println("Stack outputs:")
	for _, o := range out.Stacks[0].Outputs {
		fmt.Printf("  %s = %s\n", aws.ToString(o.OutputKey), aws.ToString(o.OutputValue))
	}
	return nil
}
