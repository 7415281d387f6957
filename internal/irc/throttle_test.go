package irc

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottlePreservesOrder(t *testing.T) {
	rec := &lineRecorder{}
	th := NewThrottle(NewWriter(rec, nil, nil), time.Millisecond, 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	require.NoError(t, th.Privmsg("#room", "one\ntwo\r\n\nthree"))
	require.NoError(t, th.Privmsg("alice", "four\nfive"))

	want := []string{
		"PRIVMSG #room :one",
		"PRIVMSG #room :two",
		"PRIVMSG #room :three",
		"PRIVMSG alice :four",
		"PRIVMSG alice :five",
	}
	assert.Eventually(t, func() bool { return len(rec.Lines()) == len(want) }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, want, rec.Lines())
}

func TestThrottlePacesLines(t *testing.T) {
	rec := &lineRecorder{}
	interval := 50 * time.Millisecond
	th := NewThrottle(NewWriter(rec, nil, nil), interval, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	start := time.Now()
	require.NoError(t, th.Privmsg("#room", "a\nb\nc"))

	assert.Eventually(t, func() bool { return len(rec.Lines()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-10*time.Millisecond)
}

func TestThrottleSplitsLongLines(t *testing.T) {
	rec := &lineRecorder{}
	logger := &bufferLogger{}
	th := NewThrottle(NewWriter(rec, nil, logger), time.Millisecond, 4, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go th.Run(ctx)

	text := strings.Repeat("é", 300) + "tail"
	require.NoError(t, th.Privmsg("#room", text))

	assert.Eventually(t, func() bool { return len(rec.Lines()) == 2 }, 2*time.Second, 5*time.Millisecond)
	var joined strings.Builder
	for _, line := range rec.Lines() {
		assert.LessOrEqual(t, len(line)+2, maxLineLen)
		assert.True(t, utf8.ValidString(line), line)
		joined.WriteString(strings.TrimPrefix(line, "PRIVMSG #room :"))
	}
	assert.Equal(t, text, joined.String())
	assert.NotContains(t, logger.String(), "truncated")
}

func TestSplitChunks(t *testing.T) {
	assert.Equal(t, []string{"abc"}, splitChunks("abc", 10))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, splitChunks("abcdefghijk", 5))
	assert.Equal(t, []string{"aaaaé", "éé"}, splitChunks("aaaaééé", 6))
	assert.Equal(t, []string{"abc"}, splitChunks("abc", 0))
	assert.Equal(t, []string{"\x80\x80\x80\x80\x80", "\x80"}, splitChunks(strings.Repeat("\x80", 6), 5))
}

func TestThrottleBlankMessage(t *testing.T) {
	th := NewThrottle(NewWriter(&lineRecorder{}, nil, nil), time.Millisecond, 1, nil)
	assert.NoError(t, th.Privmsg("#room", "\n \n"))
	assert.Empty(t, th.queue)
}

func TestThrottleQueueFull(t *testing.T) {
	th := NewThrottle(NewWriter(&lineRecorder{}, nil, nil), time.Hour, 1, nil)

	require.NoError(t, th.Privmsg("#room", "first"))
	assert.ErrorIs(t, th.Privmsg("#room", "second"), ErrQueueFull)
}

func TestThrottleStopped(t *testing.T) {
	th := NewThrottle(NewWriter(&lineRecorder{}, nil, nil), time.Millisecond, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	th.Run(ctx)

	assert.ErrorIs(t, th.Privmsg("#room", "late"), ErrStopped)
}
