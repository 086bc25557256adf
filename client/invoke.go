package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genaiid/agentcore-starter/stream"
)

// sessionHeader carries the runtime session ID. The service requires a
// value of at least 33 characters; NewSessionID satisfies that.
const sessionHeader = "X-Amzn-Bedrock-AgentCore-Runtime-Session-Id"

// Client invokes an AgentCore runtime endpoint over HTTPS with inbound
// bearer auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *zap.Logger
}

// New creates a client for the given region using the ID token from
// IDToken as the bearer credential. A nil logger disables diagnostics.
func New(region, token string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		// No client timeout: responses stream for the lifetime of a
		// turn, so cancellation is the caller's context.
		httpClient: &http.Client{},
		baseURL:    fmt.Sprintf("https://bedrock-agentcore.%s.amazonaws.com", region),
		token:      token,
		log:        log,
	}
}

// WithBaseURL overrides the service endpoint.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// NewSessionID returns a fresh runtime session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// InvokeRequest is one user turn. An empty SessionID starts a new
// session; reusing a SessionID continues one.
type InvokeRequest struct {
	Prompt    string
	UserID    string
	SessionID string
}

type invokePayload struct {
	Prompt           string `json:"prompt"`
	UserID           string `json:"userId"`
	RuntimeSessionID string `json:"runtimeSessionId"`
}

// Invoke sends one prompt to the deployment's runtime endpoint and
// drains the streaming response through the extractor for the
// deployment's framework. onUpdate fires with each accumulator change;
// the final accumulator is returned when the stream ends.
func (c *Client) Invoke(ctx context.Context, dep *Deployment, req InvokeRequest, onUpdate stream.UpdateFunc) (string, error) {
	extractor, err := stream.ForFramework(dep.Framework, c.log)
	if err != nil {
		return "", err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	body, err := json.Marshal(invokePayload{
		Prompt:           req.Prompt,
		UserID:           req.UserID,
		RuntimeSessionID: sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/runtimes/%s/invocations?qualifier=%s",
		c.baseURL, url.PathEscape(dep.RuntimeARN), url.QueryEscape(dep.EndpointName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set(sessionHeader, sessionID)

	c.log.Debug("invoking runtime",
		zap.String("runtimeArn", dep.RuntimeARN),
		zap.String("endpoint", dep.EndpointName),
		zap.String("sessionId", sessionID))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("invoking runtime: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("runtime returned %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	acc, err := stream.NewReader(extractor).Drain(ctx, resp.Body, onUpdate)
	if err != nil {
		return acc, fmt.Errorf("draining response: %w", err)
	}
	return acc, nil
}
