package irc

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingHandler records every callback as a formatted string.
type recordingHandler struct {
	NopHandler

	mu    sync.Mutex
	calls []string
}

func (h *recordingHandler) record(format string, args ...interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
	return nil
}

func (h *recordingHandler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

func (h *recordingHandler) DidStartUp() error {
	return h.record("did_start_up")
}

func (h *recordingHandler) PrivateMessage(s Sender, nick, text string) error {
	return h.record("private_message %v %s %s", s, nick, text)
}

func (h *recordingHandler) ChannelMessage(s Sender, channel, text string) error {
	return h.record("channel_message %v %s %s", s, channel, text)
}

func (h *recordingHandler) MentionsMe(s Sender, channel, text string) error {
	return h.record("mentions_me %v %s %s", s, channel, text)
}

func (h *recordingHandler) Joined(s Sender, channel string) error {
	return h.record("joined %v %s", s, channel)
}

func (h *recordingHandler) Part(s Sender, channel, reason string) error {
	return h.record("part %v %s %s", s, channel, reason)
}

func (h *recordingHandler) Quit(s Sender, reason string) error {
	return h.record("quit %v %s", s, reason)
}

func (h *recordingHandler) Kick(s Sender, channel, victim, reason string) error {
	return h.record("kick %v %s %s %s", s, channel, victim, reason)
}

func (h *recordingHandler) Mode(s Sender, channel, mode, args string) error {
	return h.record("mode %v %s %s %s", s, channel, mode, args)
}

// bufferLogger collects log output for assertions.
type bufferLogger struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (l *bufferLogger) Log(v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(fmt.Sprintln(v...))
}

func (l *bufferLogger) Logf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(fmt.Sprintf(format, v...) + "\n")
}

func (l *bufferLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func dispatchLine(d *Dispatcher, line string) {
	d.Dispatch(Classify(line, "bot"), "bot")
}

func TestDispatchMessages(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{":alice!a@h PRIVMSG #room :hello world", "channel_message {alice a@h} #room hello world"},
		{":alice!a@h PRIVMSG bot :hi", "private_message {alice a@h} bot hi"},
		{":alice!a@h PRIVMSG #room :hi bot", "mentions_me {alice a@h} #room hi bot"},
		{":alice!a@h JOIN #room", "joined {alice a@h} #room"},
		{":alice!a@h PART #room :bye now", "part {alice a@h} #room bye now"},
		{":alice!a@h QUIT :Quit: leaving", "quit {alice a@h} Quit: leaving"},
		{":mal!b@h KICK #room alice :spam", "kick {mal b@h} #room alice spam"},
		{":alice!a@h MODE #room +b *!*@h", "mode {alice a@h} #room +b *!*@h"},
	}

	for _, tt := range tests {
		h := &recordingHandler{}
		d := NewDispatcher(h, nil)
		dispatchLine(d, tt.line)
		assert.Equal(t, []string{tt.want}, h.Calls(), tt.line)
	}
}

func TestDispatchSuppressesSelfJoin(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, nil)

	dispatchLine(d, ":bot!b@h JOIN #room")
	dispatchLine(d, ":Bot!b@h JOIN :#other")

	assert.Empty(t, h.Calls())
}

func TestDispatchCommand(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, nil)

	var got []string
	d.Register("ping", func(s Sender, target, args string) error {
		got = append(got, fmt.Sprintf("ping_command %v %s %s", s, target, args))
		return nil
	})

	dispatchLine(d, ":alice!a@h PRIVMSG bot :!ping foo")
	dispatchLine(d, ":alice!a@h PRIVMSG #room :!ping")

	assert.Equal(t, []string{
		"ping_command {alice a@h} bot foo",
		"ping_command {alice a@h} #room ",
	}, got)
	assert.Empty(t, h.Calls())
}

func TestDispatchUnknownCommandFallsBack(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, nil)
	d.Register("ping", func(Sender, string, string) error { return nil })

	dispatchLine(d, ":alice!a@h PRIVMSG bot :!PING foo")
	dispatchLine(d, ":alice!a@h PRIVMSG #room :!nope bar")

	assert.Equal(t, []string{
		"private_message {alice a@h} bot !PING foo",
		"channel_message {alice a@h} #room !nope bar",
	}, h.Calls())
}

func TestDispatchUnregister(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, nil)
	called := false
	d.Register("!ping", func(Sender, string, string) error { called = true; return nil })
	d.Register("ping", nil)

	dispatchLine(d, ":alice!a@h PRIVMSG bot :!ping")

	assert.False(t, called)
	assert.Len(t, h.Calls(), 1)
}

type faultyHandler struct {
	NopHandler
}

func (faultyHandler) ChannelMessage(Sender, string, string) error {
	return errors.New("boom")
}

func (faultyHandler) Joined(Sender, string) error {
	panic("handler bug")
}

func TestDispatchIsolatesFaults(t *testing.T) {
	logger := &bufferLogger{}
	d := NewDispatcher(faultyHandler{}, logger)
	d.Register("crash", func(Sender, string, string) error {
		var m map[string]int
		m["x"] = 1
		return nil
	})

	assert.NotPanics(t, func() {
		dispatchLine(d, ":alice!a@h PRIVMSG #room :hello")
		dispatchLine(d, ":alice!a@h JOIN #room")
		dispatchLine(d, ":alice!a@h PRIVMSG #room :!crash")
	})

	out := logger.String()
	assert.Contains(t, out, "channel_message failed: boom")
	assert.Contains(t, out, "joined failed: panic: handler bug")
	assert.Contains(t, out, "crash_command failed: panic:")
}

func TestDispatchNilHandler(t *testing.T) {
	d := NewDispatcher(nil, nil)
	assert.NotPanics(t, func() {
		dispatchLine(d, ":alice!a@h KICK #room bot :spam")
		d.DidStartUp()
	})
}

func TestDispatchIgnoresNonMessageKinds(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(h, nil)

	dispatchLine(d, "PING :x")
	dispatchLine(d, ":irc 376 bot :End")
	dispatchLine(d, ":alice!a@h NOTICE bot :hi")

	assert.Empty(t, h.Calls())
}
