package irc

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-log/log"
	"golang.org/x/time/rate"
)

type outbound struct {
	target string
	lines  []string
}

// Throttle paces PRIVMSG lines through a single worker so that multi-line
// messages are never interleaved and the server's flood limit is respected.
type Throttle struct {
	w       *Writer
	limiter *rate.Limiter
	queue   chan outbound
	done    chan struct{}
	logger  log.Logger
}

// NewThrottle sends at most one line per interval through w. size bounds the
// number of queued messages.
func NewThrottle(w *Writer, interval time.Duration, size int, logger log.Logger) *Throttle {
	if logger == nil {
		logger = log.DefaultLogger
	}
	if size <= 0 {
		size = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		w:       w,
		limiter: rate.NewLimiter(limit, 1),
		queue:   make(chan outbound, size),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Privmsg queues text for target, one PRIVMSG per non-blank line. Lines too
// long for a single PRIVMSG are split into several. It never blocks: ErrQueueFull is returned when the queue is at capacity and
// ErrStopped once the worker has exited.
func (t *Throttle) Privmsg(target, text string) error {
	chunkLen := maxLineLen - len("PRIVMSG  :\r\n") - len(target)

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, splitChunks(line, chunkLen)...)
	}
	if len(lines) == 0 {
		return nil
	}

	select {
	case <-t.done:
		return ErrStopped
	default:
	}

	select {
	case t.queue <- outbound{target: target, lines: lines}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run drains the queue until ctx is cancelled. Lines still queued are dropped.
func (t *Throttle) Run(ctx context.Context) {
	defer close(t.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-t.queue:
			for _, line := range msg.lines {
				if err := t.limiter.Wait(ctx); err != nil {
					return
				}
				if err := t.w.Command("PRIVMSG", msg.target, line); err != nil {
					t.logger.Logf("[throttle] privmsg to %s failed: %v", msg.target, err)
				}
			}
		}
	}
}

// splitChunks cuts s into pieces of at most chunkLen bytes without breaking
// a UTF-8 sequence.
func splitChunks(s string, chunkLen int) (chunks []string) {
	if chunkLen <= utf8.UTFMax {
		return []string{s}
	}
	for chunkLen < len(s) {
		i := chunkLen
		for i > 0 && !utf8.RuneStart(s[i]) {
			i--
		}
		if i == 0 {
			i = chunkLen
		}
		chunks = append(chunks, s[:i])
		s = s[i:]
	}
	if len(s) != 0 {
		chunks = append(chunks, s)
	}
	return chunks
}
