package streaming

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleBody_StalledReadFails(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	b := newIdleBody(pr, 30*time.Millisecond)
	defer b.Close()

	buf := make([]byte, 8)
	_, err := b.Read(buf)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestIdleBody_TrafficResetsDeadline(t *testing.T) {
	pr, pw := io.Pipe()

	b := newIdleBody(pr, 100*time.Millisecond)
	defer b.Close()

	go func() {
		for i := 0; i < 4; i++ {
			time.Sleep(40 * time.Millisecond)
			_, _ = pw.Write([]byte("x"))
		}
		pw.Close()
	}()

	// Total transfer time exceeds the idle deadline; each read resets it.
	total := 0
	buf := make([]byte, 4)
	for {
		n, err := b.Read(buf)
		total += n
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Equal(t, 4, total)
}

func TestIdleBody_BenignCloseStillDistinguished(t *testing.T) {
	pr, pw := io.Pipe()
	b := newIdleBody(pr, time.Minute)

	pw.Close()
	_, err := b.Read(make([]byte, 4))
	require.ErrorIs(t, err, io.EOF)
	assert.True(t, benignClose(err))

	require.NoError(t, b.Close())
}
