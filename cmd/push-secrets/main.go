// push-secrets pushes environment variables from .env files to AWS Secrets Manager.
//
// It reads KEY=VALUE pairs from a file and creates/updates secrets in AWS
// Secrets Manager, organizing them into the groups the agent container
// reads at startup (llm, config).
//
// Usage:
//
//	push-secrets [flags] [env-file]
//
// Examples:
//
//	push-secrets .env                          # Push from .env to us-east-1
//	push-secrets --region us-west-2 .env       # Push to specific region
//	push-secrets --prefix orderaudit .env      # Use custom prefix (orderaudit/llm, orderaudit/config)
//	push-secrets --dry-run .env                # Preview without creating
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretGroup represents a logical grouping of secrets
type SecretGroup struct {
	Name        string
	Description string
	Keys        map[string]string
	Patterns    []string // Key patterns that belong to this group
}

var (
	region  = flag.String("region", "", "AWS region (default: AWS_REGION or us-east-1)")
	prefix  = flag.String("prefix", "", "Secret name prefix (default: stackName from config.json, lowercased)")
	dryRun  = flag.Bool("dry-run", false, "Preview changes without creating secrets")
	verbose = flag.Bool("verbose", false, "Show verbose output")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [env-file]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Push environment variables to AWS Secrets Manager.\n\n")
		fmt.Fprintf(os.Stderr, "If env-file is not specified, searches in order:\n")
		fmt.Fprintf(os.Stderr, "  1. .env (current directory)\n")
		fmt.Fprintf(os.Stderr, "  2. ../.env (parent directory)\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSecret Groups:\n")
		fmt.Fprintf(os.Stderr, "  {prefix}/llm     - LLM provider API keys (ANTHROPIC_API_KEY, OPENAI_API_KEY, etc.)\n")
		fmt.Fprintf(os.Stderr, "  {prefix}/config  - Agent configuration and observability settings\n")
	}
	flag.Parse()

	secretPrefix := *prefix
	if secretPrefix == "" {
		secretPrefix = detectPrefix()
	}
	if secretPrefix == "" {
		fmt.Fprintln(os.Stderr, "Error: no --prefix given and no config.json with stackName found")
		os.Exit(1)
	}

	var envFile string
	if flag.NArg() >= 1 {
		envFile = flag.Arg(0)
	} else {
		var err error
		envFile, err = findEnvFile()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

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

	fmt.Println("=== Push Secrets ===")
	fmt.Printf("Env file: %s\n", envFile)
	fmt.Printf("Region: %s\n", awsRegion)
	fmt.Printf("Prefix: %s\n", secretPrefix)
	if *dryRun {
		fmt.Println("Mode: DRY RUN")
	}
	fmt.Println()

	if err := run(envFile, awsRegion, secretPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(envFile, awsRegion, secretPrefix string) error {
	ctx := context.Background()

	groups := []SecretGroup{
		{
			Name:        "llm",
			Description: "LLM provider API keys",
			Keys:        make(map[string]string),
			Patterns: []string{
				"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY",
				"GEMINI_API_KEY", "LLM_API_KEY",
			},
		},
		{
			Name:        "config",
			Description: "Agent configuration and observability settings",
			Keys:        make(map[string]string),
			Patterns: []string{
				"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL",
				"OBSERVABILITY_ENABLED", "OBSERVABILITY_PROVIDER",
				"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY",
			},
		},
	}

	if err := parseEnvFile(envFile, groups); err != nil {
		return fmt.Errorf("parsing %s: %w", envFile, err)
	}

	var client *secretsmanager.Client
	if !*dryRun {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
		if err != nil {
			return fmt.Errorf("loading AWS config: %w", err)
		}
		client = secretsmanager.NewFromConfig(cfg)
	}

	for _, group := range groups {
		secretName := fmt.Sprintf("%s/%s", secretPrefix, group.Name)
		if err := createOrUpdateSecret(ctx, client, secretName, group); err != nil {
			return err
		}
	}

	fmt.Println()
	fmt.Println("Done")
	return nil
}

func findEnvFile() (string, error) {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no .env file found (searched .env, ../.env)")
}

// detectPrefix reads stackName from config.json next to the env file.
func detectPrefix() string {
	for _, path := range []string{"config.json", "../config.json"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg struct {
			StackName string `json:"stackName"`
		}
		if json.Unmarshal(data, &cfg) == nil && cfg.StackName != "" {
			return strings.ToLower(cfg.StackName)
		}
	}
	return ""
}

func parseEnvFile(filename string, groups []SecretGroup) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	envRegex := regexp.MustCompile(`^\s*(export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		matches := envRegex.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		key := matches[2]
		value := strings.Trim(matches[3], `"'`)

		if value == "" || strings.HasPrefix(value, "your-") {
			continue
		}

		for i := range groups {
			for _, pattern := range groups[i].Patterns {
				if key == pattern {
					groups[i].Keys[key] = value
					if *verbose {
						fmt.Printf("  Found %s: %s\n", groups[i].Name, key)
					}
					break
				}
			}
		}
	}

	return scanner.Err()
}

func createOrUpdateSecret(ctx context.Context, client *secretsmanager.Client, secretName string, group SecretGroup) error {
	if len(group.Keys) == 0 {
		fmt.Printf("  Skipping %s (no keys found)\n", secretName)
		return nil
	}

	jsonBytes, err := json.Marshal(group.Keys)
	if err != nil {
		return err
	}
	secretValue := string(jsonBytes)

	var keyNames []string
	for k := range group.Keys {
		keyNames = append(keyNames, k)
	}
	fmt.Printf("  %s: %s\n", secretName, strings.Join(keyNames, ", "))

	if *dryRun {
		fmt.Printf("    [DRY RUN] Would create/update\n")
		return nil
	}

	_, err = client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(secretName),
		SecretString: aws.String(secretValue),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			_, err = client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
				Name:         aws.String(secretName),
				Description:  aws.String(group.Description),
				SecretString: aws.String(secretValue),
			})
			if err != nil {
				return err
			}
			fmt.Printf("    Created\n")
			return nil
		}
		return err
	}
	fmt.Printf("    Updated\n")
	return nil
}
