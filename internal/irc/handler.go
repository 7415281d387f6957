package irc

// Handler receives dispatched events. Embed NopHandler to implement only the
// callbacks you need. Errors and panics are logged by the Dispatcher and never
// reach the read loop.
type Handler interface {
	DidStartUp() error
	// PrivateMessage is a PRIVMSG addressed to the bot's nick.
	PrivateMessage(sender Sender, nick, text string) error
	ChannelMessage(sender Sender, channel, text string) error
	// MentionsMe is a channel PRIVMSG whose text contains the bot's nick.
	MentionsMe(sender Sender, channel, text string) error
	Joined(sender Sender, channel string) error
	Part(sender Sender, channel, reason string) error
	Quit(sender Sender, reason string) error
	Kick(sender Sender, channel, victim, reason string) error
	Mode(sender Sender, channel, mode, args string) error
}

// CommandFunc handles a "!name args" message. target is the channel, or the
// bot's nick when the command was sent privately.
type CommandFunc func(sender Sender, target, args string) error

// NopHandler implements every Handler callback as a no-op.
type NopHandler struct{}

func (NopHandler) DidStartUp() error                           { return nil }
func (NopHandler) PrivateMessage(Sender, string, string) error { return nil }
func (NopHandler) ChannelMessage(Sender, string, string) error { return nil }
func (NopHandler) MentionsMe(Sender, string, string) error     { return nil }
func (NopHandler) Joined(Sender, string) error                 { return nil }
func (NopHandler) Part(Sender, string, string) error           { return nil }
func (NopHandler) Quit(Sender, string) error                   { return nil }
func (NopHandler) Kick(Sender, string, string, string) error   { return nil }
func (NopHandler) Mode(Sender, string, string, string) error   { return nil }
