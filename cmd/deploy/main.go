// deploy orchestrates the full AgentCore starter-kit deployment.
//
// It handles:
//  1. Pushing secrets from .env to AWS Secrets Manager
//  2. Bootstrapping AWS CDK
//  3. Deploying the CDK stack and waiting for CloudFormation
//  4. Building the agent container image with CodeBuild
//  5. Releasing the Amplify frontend branch
//
// Usage:
//
//	deploy [flags]
//
// Examples:
//
//	deploy                              # Deploy config.json from current directory
//	deploy --config stack.yaml          # Deploy a YAML stack config
//	deploy --region us-west-2           # Deploy to specific region
//	deploy --dry-run                    # Preview without deploying
//	deploy --skip-build                 # Skip the container build step
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/genaiid/agentcore-starter/infra"
)

var (
	configFile    = flag.String("config", "config.json", "Stack config file (JSON or YAML)")
	region        = flag.String("region", "", "AWS region (default: AWS_REGION or us-east-1)")
	envFile       = flag.String("env", "", "Path to .env file (default: auto-detect)")
	dryRun        = flag.Bool("dry-run", false, "Preview changes without deploying")
	skipSecrets   = flag.Bool("skip-secrets", false, "Skip pushing secrets")
	skipBootstrap = flag.Bool("skip-bootstrap", false, "Skip CDK bootstrap")
	skipBuild     = flag.Bool("skip-build", false, "Skip the CodeBuild container build")
	skipFrontend  = flag.Bool("skip-frontend", false, "Skip the Amplify frontend release")
	verbose       = flag.Bool("verbose", false, "Show verbose output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Deploy the AgentCore starter stack.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSteps:\n")
		fmt.Fprintf(os.Stderr, "  1. Push secrets from .env to AWS Secrets Manager\n")
		fmt.Fprintf(os.Stderr, "  2. Bootstrap AWS CDK (if needed)\n")
		fmt.Fprintf(os.Stderr, "  3. Deploy CDK stack and wait for CloudFormation\n")
		fmt.Fprintf(os.Stderr, "  4. Build the agent container image (CodeBuild)\n")
		fmt.Fprintf(os.Stderr, "  5. Release the Amplify frontend branch\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	awsRegion := *region
	if awsRegion == "" {
		awsRegion = os.Getenv("AWS_REGION")
	}
	if awsRegion == "" {
		awsRegion = os.Getenv("AWS_DEFAULT_REGION")
	}
	if awsRegion == "" {
		awsRegion = "us-east-1"
	}

	stackCfg, err := infra.LoadStackConfigFromFile(*configFile)
	if err != nil {
		return fmt.Errorf("loading %s: %w", *configFile, err)
	}

	fmt.Println("=== AgentCore Starter Deployment ===")
	fmt.Println()
	fmt.Printf("Stack: %s\n", stackCfg.StackName)
	fmt.Printf("Framework: %s\n", stackCfg.Framework)
	fmt.Printf("Region: %s\n", awsRegion)
	fmt.Printf("Working directory: %s\n", mustGetwd())
	if *dryRun {
		fmt.Println("Mode: DRY RUN (no changes will be made)")
	}
	fmt.Println()

	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	stsClient := sts.NewFromConfig(cfg)
	identity, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("getting AWS identity: %w", err)
	}
	accountID := *identity.Account
	fmt.Printf("AWS Account: %s\n", accountID)
	fmt.Println()

	if !*skipSecrets {
		fmt.Println("=== Step 1: Push Secrets ===")
		if err := pushSecrets(ctx, cfg, *envFile, stackCfg.StackName, *dryRun, *verbose); err != nil {
			return fmt.Errorf("pushing secrets: %w", err)
		}
		fmt.Println()
	} else {
		fmt.Println("=== Step 1: Skipping secrets (--skip-secrets) ===")
		fmt.Println()
	}

	if !*skipBootstrap {
		fmt.Println("=== Step 2: Bootstrap CDK ===")
		bootstrapCDK(ctx, accountID, awsRegion, *dryRun)
		fmt.Println()
	} else {
		fmt.Println("=== Step 2: Skipping bootstrap (--skip-bootstrap) ===")
		fmt.Println()
	}

	fmt.Println("=== Step 3: Deploy Stack ===")
	if err := deployCDK(ctx, *dryRun); err != nil {
		return fmt.Errorf("deploying: %w", err)
	}
	if !*dryRun {
		if err := waitForStack(ctx, cfg, stackCfg.StackName); err != nil {
			return fmt.Errorf("waiting for stack: %w", err)
		}
	}
	fmt.Println()

	if stackCfg.Build != nil && !*skipBuild {
		fmt.Println("=== Step 4: Build Agent Image ===")
		if *dryRun {
			fmt.Printf("[DRY RUN] Would start CodeBuild project %s\n", stackCfg.Build.ProjectName)
		} else if err := runContainerBuild(ctx, cfg, stackCfg.Build.ProjectName); err != nil {
			return fmt.Errorf("building agent image: %w", err)
		}
		fmt.Println()
	} else {
		fmt.Println("=== Step 4: Skipping container build ===")
		fmt.Println()
	}

	if stackCfg.Frontend != nil && stackCfg.Frontend.Repository != "" && !*skipFrontend {
		fmt.Println("=== Step 5: Release Frontend ===")
		if *dryRun {
			fmt.Printf("[DRY RUN] Would release Amplify branch %s\n", stackCfg.Frontend.BranchName)
		} else if err := releaseFrontend(ctx, cfg, stackCfg); err != nil {
			return fmt.Errorf("releasing frontend: %w", err)
		}
		fmt.Println()
	} else {
		fmt.Println("=== Step 5: Skipping frontend release ===")
		fmt.Println()
	}

	fmt.Println("=== Deployment Complete ===")
	if !*dryRun {
		fmt.Println()
		if err := printStackOutputs(ctx, cfg, stackCfg.StackName); err != nil {
			fmt.Printf("Warning: reading stack outputs: %v\n", err)
		}
	}

	return nil
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// bootstrapCDK runs cdk bootstrap
func bootstrapCDK(ctx context.Context, accountID, region string, dryRun bool) {
	target := fmt.Sprintf("aws://%s/%s", accountID, region)
	fmt.Printf("Bootstrap target: %s\n", target)

	if dryRun {
		fmt.Println("[DRY RUN] Would run: cdk bootstrap " + target)
		return
	}

	cmd := exec.CommandContext(ctx, "cdk", "bootstrap", target)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Bootstrap might fail if already done, that's OK
		fmt.Println("  Bootstrap completed (or already bootstrapped)")
	}
}

// deployCDK runs cdk deploy
func deployCDK(ctx context.Context, dryRun bool) error {
	fmt.Println("Running go mod tidy...")
	tidyCmd := exec.CommandContext(ctx, "go", "mod", "tidy")
	tidyCmd.Stdout = os.Stdout
	tidyCmd.Stderr = os.Stderr
	if err := tidyCmd.Run(); err != nil {
		fmt.Printf("Warning: go mod tidy failed: %v\n", err)
	}

	if dryRun {
		fmt.Println("Running cdk diff...")
		cmd := exec.CommandContext(ctx, "cdk", "diff")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		_ = cmd.Run() // diff returns non-zero when there are differences
		return nil
	}

	fmt.Println("Running cdk deploy...")
	cmd := exec.CommandContext(ctx, "cdk", "deploy", "--require-approval", "never")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
