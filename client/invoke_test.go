package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeStreamsStrandsResponse(t *testing.T) {
	var gotPath, gotAuth, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotSession = r.Header.Get(sessionHeader)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintln(w, `data: {"event":{"messageStart":{"role":"assistant"}}}`)
		fmt.Fprintln(w, `data: {"event":{"contentBlockDelta":{"delta":{"text":"Hi"}}}}`)
		fmt.Fprintln(w, `data: {"event":{"contentBlockDelta":{"delta":{"text":" there"}}}}`)
		fmt.Fprintln(w, `data: {"event":{"messageStop":{"stopReason":"end_turn"}}}`)
	}))
	defer srv.Close()

	dep := &Deployment{
		Framework:    "strands",
		RuntimeARN:   "arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/demo-agent-abc",
		EndpointName: "DEFAULT",
	}
	c := New("us-east-1", "test-token", nil).WithBaseURL(srv.URL)

	var updates []string
	acc, err := c.Invoke(context.Background(), dep, InvokeRequest{Prompt: "hello", UserID: "u1"}, func(text string) {
		updates = append(updates, text)
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there", acc)
	assert.Equal(t, []string{"Hi", "Hi there"}, updates)
	assert.Contains(t, gotPath, "/invocations")
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.GreaterOrEqual(t, len(gotSession), 33)
}

func TestInvokeReusesSessionID(t *testing.T) {
	var gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get(sessionHeader)
	}))
	defer srv.Close()

	dep := &Deployment{Framework: "langgraph", RuntimeARN: "arn:test", EndpointName: "DEFAULT"}
	c := New("us-east-1", "t", nil).WithBaseURL(srv.URL)

	sessionID := NewSessionID()
	_, err := c.Invoke(context.Background(), dep, InvokeRequest{Prompt: "p", SessionID: sessionID}, nil)
	require.NoError(t, err)
	assert.Equal(t, sessionID, gotSession)
}

func TestInvokeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	}))
	defer srv.Close()

	dep := &Deployment{Framework: "strands", RuntimeARN: "arn:test", EndpointName: "DEFAULT"}
	c := New("us-east-1", "t", nil).WithBaseURL(srv.URL)

	acc, err := c.Invoke(context.Background(), dep, InvokeRequest{Prompt: "p"}, nil)
	require.Error(t, err)
	assert.Empty(t, acc)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "access denied")
}

func TestInvokeUnknownFramework(t *testing.T) {
	dep := &Deployment{Framework: "crewai", RuntimeARN: "arn:test"}
	c := New("us-east-1", "t", nil)

	_, err := c.Invoke(context.Background(), dep, InvokeRequest{Prompt: "p"}, nil)
	assert.Error(t, err)
}
