// Package streaming implements the wire-level token stream adapters for the
// supported chat providers. Each adapter speaks one provider's streaming
// format and normalizes it into a channel of text chunks.
package streaming

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/promptgate/promptgate/pkg/domain/connection"
)

// Message is one turn of the conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk is one normalized unit of a provider stream. Err is terminal: the
// adapter closes the channel right after sending it.
type Chunk struct {
	Text string
	Err  error
}

//go:generate mockery --name=Adapter --dir=. --output=./mocks --filename=adapter_mock.go --case=underscore --with-expecter

// Adapter opens a streaming completion against one provider. Stream returns
// an error only for failures before the first byte of the stream; later
// failures arrive on the channel. The channel is unbuffered so a slow
// consumer applies backpressure to the upstream read.
type Adapter interface {
	Stream(ctx context.Context, apiKey, model string, messages []Message) (<-chan Chunk, error)
}

//go:generate mockery --name=AdapterLocator --dir=. --output=./mocks --filename=adapter_locator_mock.go --case=underscore --with-expecter

type AdapterLocator interface {
	Get(provider string) (Adapter, error)
}

type adapterLocator struct {
	openai    Adapter
	anthropic Adapter
	gemini    Adapter
}

func NewAdapterLocator(client *http.Client) AdapterLocator {
	if client == nil {
		// No total timeout: streams legitimately run for minutes. Bound
		// the dial and time-to-first-byte instead.
		client = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
			},
		}
	}
	return &adapterLocator{
		openai:    NewOpenAIAdapter(openAIBaseURL, client),
		anthropic: NewAnthropicAdapter(anthropicBaseURL, client),
		gemini:    NewGeminiAdapter(geminiBaseURL, client),
	}
}

func (l *adapterLocator) Get(provider string) (Adapter, error) {
	switch provider {
	case connection.ProviderOpenAI:
		return l.openai, nil
	case connection.ProviderAnthropic:
		return l.anthropic, nil
	case connection.ProviderGemini:
		return l.gemini, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// streamIdleTimeout bounds the silence between bytes once a stream is open.
// A vendor that stops sending must fail the turn, not hold it open forever.
const streamIdleTimeout = 60 * time.Second

// idleBody wraps a response body and closes it when no bytes arrive within
// the timeout, so a stalled read surfaces as a distinct error instead of
// blocking indefinitely.
type idleBody struct {
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	stalled atomic.Bool
}

func newIdleBody(body io.ReadCloser, timeout time.Duration) *idleBody {
	b := &idleBody{body: body, timeout: timeout}
	b.timer = time.AfterFunc(timeout, func() {
		b.stalled.Store(true)
		b.body.Close()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if err != nil && b.stalled.Load() {
		return n, fmt.Errorf("upstream sent no data for %s", b.timeout)
	}
	if err == nil {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	return b.body.Close()
}

func newSSEScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	buf := make([]byte, 0, 512*1024)
	sc.Buffer(buf, 2*1024*1024)
	return sc
}

// benignClose reports whether a stream read error is an ordinary end of
// stream rather than a failure worth surfacing. A connection reset is NOT
// benign: the consumer must see an error event instead of a silently
// truncated completion.
func benignClose(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "use of closed network connection")
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var preview strings.Builder
	_, _ = io.CopyN(&preview, resp.Body, 64*1024)
	return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, preview.String())
}
