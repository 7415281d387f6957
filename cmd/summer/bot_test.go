package main

import (
	"testing"

	"github.com/dalnet/summer/internal/irc"
	"github.com/go-log/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReplier struct {
	commands map[string]irc.CommandFunc
	sent     []string
}

func (r *fakeReplier) Nick() string { return "summer" }

func (r *fakeReplier) Privmsg(target, text string) error {
	r.sent = append(r.sent, target+": "+text)
	return nil
}

func (r *fakeReplier) RegisterCommand(name string, fn irc.CommandFunc) {
	if r.commands == nil {
		r.commands = make(map[string]irc.CommandFunc)
	}
	r.commands[name] = fn
}

func newTestBot() (*bot, *fakeReplier) {
	r := &fakeReplier{}
	b := &bot{logger: log.DefaultLogger}
	b.attach(r)
	return b, r
}

func TestBotRegistersCommands(t *testing.T) {
	_, r := newTestBot()
	assert.Len(t, r.commands, 3)
	for _, name := range []string{"help", "version", "ping"} {
		assert.Contains(t, r.commands, name)
	}
}

func TestBotPing(t *testing.T) {
	_, r := newTestBot()
	alice := irc.Sender{Nick: "alice", Hostname: "a@h"}

	require.NoError(t, r.commands["ping"](alice, "#room", "foo"))
	require.NoError(t, r.commands["ping"](alice, "summer", ""))

	assert.Equal(t, []string{
		"#room: alice: pong foo",
		"alice: alice: pong",
	}, r.sent)
}

func TestBotHelpIsPrivate(t *testing.T) {
	_, r := newTestBot()
	require.NoError(t, r.commands["help"](irc.Sender{Nick: "alice"}, "#room", ""))

	require.Len(t, r.sent, 1)
	assert.Contains(t, r.sent[0], "alice: Available commands:\n")
}

func TestBotMention(t *testing.T) {
	b, r := newTestBot()
	require.NoError(t, b.MentionsMe(irc.Sender{Nick: "alice"}, "#room", "hey summer"))
	assert.Equal(t, []string{"#room: alice: type !help for a list of commands"}, r.sent)
}
