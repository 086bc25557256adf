package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

type secretGroup struct {
	name        string
	description string
	keys        map[string]string
	patterns    []string
}

// secretGroups returns the secret layout the agent container reads at
// startup: {stack}/llm for provider credentials, {stack}/config for
// model and observability settings.
func secretGroups() []secretGroup {
	return []secretGroup{
		{
			name:        "llm",
			description: "LLM provider API keys",
			keys:        make(map[string]string),
			patterns: []string{
				"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY",
				"GEMINI_API_KEY", "LLM_API_KEY",
			},
		},
		{
			name:        "config",
			description: "Agent configuration and observability settings",
			keys:        make(map[string]string),
			patterns: []string{
				"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL",
				"OBSERVABILITY_ENABLED", "OBSERVABILITY_PROVIDER",
				"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY",
			},
		},
	}
}

// pushSecrets pushes environment variables to AWS Secrets Manager under
// the stack's namespace.
func pushSecrets(ctx context.Context, cfg aws.Config, envFile, stackName string, dryRun, verbose bool) error {
	envPath := envFile
	if envPath == "" {
		var err error
		envPath, err = findEnvFile()
		if err != nil {
			fmt.Println("No .env file found, skipping secrets push")
			fmt.Println("  Searched: .env, ../.env")
			return nil
		}
	} else if _, err := os.Stat(envPath); os.IsNotExist(err) {
		fmt.Printf("Warning: %s not found, skipping secrets push\n", envFile)
		return nil
	}

	fmt.Printf("Reading from: %s\n", envPath)

	groups := secretGroups()
	if err := parseEnvFile(envPath, groups, verbose); err != nil {
		return err
	}

	var client *secretsmanager.Client
	if !dryRun {
		client = secretsmanager.NewFromConfig(cfg)
	}

	prefix := strings.ToLower(stackName)
	for _, group := range groups {
		secretName := fmt.Sprintf("%s/%s", prefix, group.name)
		if err := createOrUpdateSecret(ctx, client, secretName, group, dryRun); err != nil {
			return err
		}
	}

	return nil
}

func findEnvFile() (string, error) {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no .env file found")
}

func parseEnvFile(filename string, groups []secretGroup, verbose bool) error {
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

		// Placeholder values from .env.example templates
		if value == "" || strings.HasPrefix(value, "your-") {
			continue
		}

		for i := range groups {
			for _, pattern := range groups[i].patterns {
				if key == pattern {
					groups[i].keys[key] = value
					if verbose {
						fmt.Printf("  Found %s: %s\n", groups[i].name, key)
					}
					break
				}
			}
		}
	}

	return scanner.Err()
}

func createOrUpdateSecret(ctx context.Context, client *secretsmanager.Client, secretName string, group secretGroup, dryRun bool) error {
	if len(group.keys) == 0 {
		fmt.Printf("  Skipping %s (no keys found)\n", secretName)
		return nil
	}

	jsonBytes, err := json.Marshal(group.keys)
	if err != nil {
		return err
	}
	secretValue := string(jsonBytes)

	var keyNames []string
	for k := range group.keys {
		keyNames = append(keyNames, k)
	}
	fmt.Printf("  %s: %s\n", secretName, strings.Join(keyNames, ", "))

	if dryRun {
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
				Description:  aws.String(group.description),
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
