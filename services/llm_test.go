package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGatewayLLMRequiresKey(t *testing.T) {
	_, err := NewGatewayLLM(map[string]string{"LLM_BASE_URL": "http://localhost"})
	assert.ErrorIs(t, err, ErrLLMNotConfigured)
}

func TestGatewayStreamChatRelaysDeltasUntilDone(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "lo", " there"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	llm, err := NewGatewayLLM(map[string]string{
		"LLM_API_KEY":    "test-key",
		"LLM_BASE_URL":   srv.URL,
		"LLM_CHAT_MODEL": "m",
	})
	require.NoError(t, err)

	var chunks []string
	reply, err := llm.StreamChat(context.Background(), []ChatTurn{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "hi"},
	}, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo", " there"}, chunks)
	assert.Equal(t, "Hello there", reply)
	assert.Equal(t, true, gotBody["stream"])
	assert.Equal(t, "m", gotBody["model"])
}

func TestGatewayStreamChatUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	llm, err := NewGatewayLLM(map[string]string{"LLM_API_KEY": "k", "LLM_BASE_URL": srv.URL})
	require.NoError(t, err)

	called := false
	_, err = llm.StreamChat(context.Background(), []ChatTurn{{Role: RoleUser, Content: "hi"}}, func(string) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}
