// chat is a terminal chat client for a deployed AgentCore starter stack.
//
// It discovers the deployment from SSM, signs the user in against the
// stack's Cognito user pool, and streams agent responses to the
// terminal as they arrive.
//
// Usage:
//
//	chat --stack OrderAudit --username user@example.com
//
// The password is read from AGENT_PASSWORD or prompted line-buffered on
// stdin. With --prompt the client sends one turn and exits; without it,
// prompts are read interactively.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"

	"github.com/genaiid/agentcore-starter/client"
)

var (
	stackName = flag.String("stack", "", "Deployed stack name (required)")
	region    = flag.String("region", "", "AWS region (default: AWS_REGION or us-east-1)")
	username  = flag.String("username", "", "Cognito username (required)")
	prompt    = flag.String("prompt", "", "Send a single prompt and exit")
	verbose   = flag.Bool("verbose", false, "Log request details")
)

func main() {
	flag.Parse()

	if *stackName == "" || *username == "" {
		flag.Usage()
		os.Exit(2)
	}

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
		awsRegion = "us-east-1"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := zap.NewNop()
	if *verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer log.Sync()
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	dep, err := client.Discover(ctx, ssm.NewFromConfig(cfg), *stackName, awsRegion)
	if err != nil {
		return err
	}
	fmt.Printf("Stack: %s (%s agent)\n", dep.StackName, dep.Framework)

	password := os.Getenv("AGENT_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimSpace(line)
	}

	token, err := client.IDToken(ctx, cognitoidentityprovider.NewFromConfig(cfg), dep.UserPoolClientID, *username, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n\n", *username)

	c := client.New(awsRegion, token, log)
	sessionID := client.NewSessionID()

	if *prompt != "" {
		return sendTurn(ctx, c, dep, *prompt, sessionID)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if err := sendTurn(ctx, c, dep, line, sessionID); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// sendTurn streams one response, printing only the text appended since
// the last update.
func sendTurn(ctx context.Context, c *client.Client, dep *client.Deployment, text, sessionID string) error {
	printed := 0
	_, err := c.Invoke(ctx, dep, client.InvokeRequest{
		Prompt:    text,
		UserID:    *username,
		SessionID: sessionID,
	}, func(acc string) {
		fmt.Print(acc[printed:])
		printed = len(acc)
	})
	fmt.Println()
	return err
}
