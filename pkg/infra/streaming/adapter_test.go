package streaming_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptgate/promptgate/pkg/infra/streaming"
)

func collect(t *testing.T, ch <-chan streaming.Chunk) ([]string, error) {
	t.Helper()
	var texts []string
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return texts, nil
			}
			if chunk.Err != nil {
				return texts, chunk.Err
			}
			texts = append(texts, chunk.Text)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for stream chunk")
		}
	}
}

func TestOpenAIAdapter_StreamsUntilDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"never\"}}]}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	adapter := streaming.NewOpenAIAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-test", "gpt-4o", []streaming.Message{
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"Hel", "lo"}, texts)
}

func TestOpenAIAdapter_SkipsMalformedLines(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: not json at all\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	adapter := streaming.NewOpenAIAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-test", "gpt-4o", nil)
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"ok"}, texts)
}

func TestOpenAIAdapter_UpstreamRejectionFailsBeforeStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key"}}`)
	}))
	defer server.Close()

	adapter := streaming.NewOpenAIAdapter(server.URL, server.Client())
	_, err := adapter.Stream(context.Background(), "sk-bad", "gpt-4o", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAIAdapter_MidStreamFailureIsTerminalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"tial\"}}]}\n\n")
		flusher.Flush()
		panic(http.ErrAbortHandler)
	}))
	defer server.Close()

	adapter := streaming.NewOpenAIAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-test", "gpt-4o", nil)
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	assert.Equal(t, []string{"par", "tial"}, texts)
	require.Error(t, streamErr)
	assert.Contains(t, streamErr.Error(), "stream read failed")
}

func TestOpenAIAdapter_ConnectionResetIsTerminalError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hj, ok := w.(http.Hijacker)
		require.True(t, ok)
		conn, buf, err := hj.Hijack()
		require.NoError(t, err)

		buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\n\r\n")
		buf.WriteString("data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n")
		buf.WriteString("data: {\"choices\":[{\"delta\":{\"content\":\"tial\"}}]}\n\n")
		require.NoError(t, buf.Flush())
		time.Sleep(50 * time.Millisecond)

		// Closing with linger 0 sends a RST instead of a clean FIN.
		if tcp, ok := conn.(*net.TCPConn); ok {
			require.NoError(t, tcp.SetLinger(0))
		}
		conn.Close()
	}))
	defer server.Close()

	adapter := streaming.NewOpenAIAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-test", "gpt-4o", nil)
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	assert.Equal(t, []string{"par", "tial"}, texts)
	require.Error(t, streamErr, "a reset mid-body must never look like a clean completion")
	assert.Contains(t, streamErr.Error(), "stream read failed")
}

func TestAnthropicAdapter_FiltersByEventType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		fmt.Fprint(w, "event: message_start\n")
		fmt.Fprint(w, "data: {\"type\":\"message_start\",\"message\":{\"id\":\"msg_1\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hel\"}}\n\n")
		fmt.Fprint(w, "event: content_block_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	adapter := streaming.NewAnthropicAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-ant", "claude-3-5-sonnet-20241022", []streaming.Message{
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"Hel", "lo"}, texts)
}

func TestAnthropicAdapter_SystemTurnMovedToSystemField(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	adapter := streaming.NewAnthropicAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "sk-ant", "claude-3-5-sonnet-20241022", []streaming.Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	_, _ = collect(t, ch)

	body := string(gotBody)
	assert.Contains(t, body, `"system":"be terse"`)
	assert.NotContains(t, body, `"role":"system"`)
	assert.Contains(t, body, `"max_tokens":4096`)
}

func TestGeminiAdapter_EmitsPartsFromCompleteDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		fmt.Fprint(w, `[{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]},{"candidates":[{"content":{"parts":[{"text":"lo"}]}}]}]`)
	}))
	defer server.Close()

	adapter := streaming.NewGeminiAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "g-key", "gemini-1.5-pro", []streaming.Message{
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"Hel", "lo"}, texts)
}

func TestGeminiAdapter_BuffersFragmentedDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, `[{"candidates":[{"content":{"parts":[{"te`)
		flusher.Flush()
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, `xt":"whole"}]}}]}]`)
		flusher.Flush()
	}))
	defer server.Close()

	adapter := streaming.NewGeminiAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "g-key", "gemini-1.5-pro", nil)
	require.NoError(t, err)

	texts, streamErr := collect(t, ch)
	require.NoError(t, streamErr)
	assert.Equal(t, []string{"whole"}, texts)
}

func TestGeminiAdapter_AssistantRoleMappedToModel(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	adapter := streaming.NewGeminiAdapter(server.URL, server.Client())
	ch, err := adapter.Stream(context.Background(), "g-key", "gemini-1.5-pro", []streaming.Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	require.NoError(t, err)
	_, _ = collect(t, ch)

	body := string(gotBody)
	assert.Contains(t, body, `"role":"model"`)
	assert.NotContains(t, body, `"role":"assistant"`)
}

func TestAdapterLocator_KnownAndUnknownProviders(t *testing.T) {
	locator := streaming.NewAdapterLocator(nil)

	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		adapter, err := locator.Get(provider)
		require.NoError(t, err)
		assert.NotNil(t, adapter)
	}

	_, err := locator.Get("cohere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}
