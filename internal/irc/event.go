package irc

import (
	"regexp"
	"strings"
)

// Kind identifies the type of an inbound event
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindNumeric
	KindPrivateMessage
	KindChannelMessage
	KindMention
	KindJoin
	KindPart
	KindQuit
	KindKick
	KindMode
)

var kindNames = [...]string{
	KindUnknown:        "unknown",
	KindPing:           "ping",
	KindNumeric:        "numeric",
	KindPrivateMessage: "private_message",
	KindChannelMessage: "channel_message",
	KindMention:        "mention",
	KindJoin:           "join",
	KindPart:           "part",
	KindQuit:           "quit",
	KindKick:           "kick",
	KindMode:           "mode",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Sender identifies the origin of a server-relayed line
type Sender struct {
	Nick string
	// Hostname is everything after the first '!' of the prefix, usually user@host.
	Hostname string
}

// Mask returns the sender in nick!user@host form.
func (s Sender) Mask() string {
	if s.Hostname == "" {
		return s.Nick
	}
	return s.Nick + "!" + s.Hostname
}

// ParseSender splits a raw prefix token such as ":nick!user@host".
func ParseSender(prefix string) Sender {
	nick, hostname, _ := strings.Cut(prefix, "!")
	return Sender{
		Nick:     clean([]string{nick}),
		Hostname: hostname,
	}
}

// Event is a classified inbound line. Only the fields relevant to Kind are set.
type Event struct {
	Kind Kind
	Line string

	Sender Sender
	// Target is the channel, or the bot's nick for private messages.
	Target string
	// Text holds the message text, or the reason for PART, QUIT and KICK.
	Text string

	// Token is the PING payload.
	Token string
	// Code is the numeric reply code.
	Code string

	// Command and Args are set for PRIVMSG text of the form "!command args".
	Command string
	Args    string

	// Victim is the nick removed by a KICK.
	Victim string

	Mode     string
	ModeArgs string
}

var (
	pingPattern    = regexp.MustCompile(`^PING (\S.*?)\s*$`)
	numericPattern = regexp.MustCompile(`^\d+$`)
	commandPattern = regexp.MustCompile(`^!(\S+)(?:\s+(.*))?$`)
)

// Tokenize splits a protocol line on runs of whitespace.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// clean joins tokens with single spaces, then drops one leading ':' and
// surrounding whitespace.
func clean(tokens []string) string {
	s := strings.Join(tokens, " ")
	s = strings.TrimPrefix(s, ":")
	return strings.TrimSpace(s)
}

// token returns tokens[i], or "" when the line is too short.
func token(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

// rest returns tokens[i:], or nil when the line is too short.
func rest(tokens []string, i int) []string {
	if i < len(tokens) {
		return tokens[i:]
	}
	return nil
}

// Classify turns a raw line into an Event. me is the bot's own nick.
// It has no side effects; the same input always yields the same Event.
func Classify(line, me string) Event {
	ev := Event{Kind: KindUnknown, Line: line}

	if m := pingPattern.FindStringSubmatch(line); m != nil {
		ev.Kind = KindPing
		ev.Token = m[1]
		return ev
	}

	words := Tokenize(line)
	if len(words) < 2 {
		return ev
	}
	prefix, raw, channel := words[0], words[1], token(words, 2)

	if numericPattern.MatchString(raw) {
		ev.Kind = KindNumeric
		ev.Code = raw
		return ev
	}

	switch raw {
	case "PRIVMSG":
		ev.Sender = ParseSender(prefix)
		ev.Target = channel
		ev.Text = clean(rest(words, 3))
		switch {
		case strings.EqualFold(channel, me):
			ev.Kind = KindPrivateMessage
		case me != "" && strings.Contains(strings.ToLower(ev.Text), strings.ToLower(me)):
			ev.Kind = KindMention
		default:
			ev.Kind = KindChannelMessage
		}
		if m := commandPattern.FindStringSubmatch(ev.Text); m != nil {
			ev.Command = m[1]
			ev.Args = strings.TrimSpace(m[2])
		}
	case "JOIN":
		ev.Kind = KindJoin
		ev.Sender = ParseSender(prefix)
		ev.Target = strings.TrimPrefix(channel, ":")
	case "PART":
		ev.Kind = KindPart
		ev.Sender = ParseSender(prefix)
		ev.Target = channel
		ev.Text = clean(rest(words, 3))
	case "QUIT":
		ev.Kind = KindQuit
		ev.Sender = ParseSender(prefix)
		ev.Text = clean(rest(words, 2))
	case "KICK":
		ev.Kind = KindKick
		ev.Sender = ParseSender(prefix)
		ev.Target = channel
		ev.Victim = token(words, 3)
		ev.Text = clean(rest(words, 4))
	case "MODE":
		ev.Kind = KindMode
		ev.Sender = ParseSender(prefix)
		ev.Target = channel
		ev.Mode = strings.TrimPrefix(token(words, 3), ":")
		ev.ModeArgs = clean(rest(words, 4))
	}

	return ev
}
