package main

import (
	"fmt"
	"strings"

	"github.com/dalnet/summer/internal/irc"
	"github.com/go-log/log"
)

// replier is the part of the client the bot needs to answer.
type replier interface {
	Nick() string
	Privmsg(target, text string) error
	RegisterCommand(name string, fn irc.CommandFunc)
}

// bot is the demo handler: it logs membership changes and answers a few
// commands.
type bot struct {
	irc.NopHandler

	client replier
	logger log.Logger
}

func (b *bot) attach(c replier) {
	b.client = c
	c.RegisterCommand("help", b.cmdHelp)
	c.RegisterCommand("version", b.cmdVersion)
	c.RegisterCommand("ping", b.cmdPing)
}

// replyTarget answers privately for private messages and in the channel otherwise.
func (b *bot) replyTarget(sender irc.Sender, target string) string {
	if strings.EqualFold(target, b.client.Nick()) {
		return sender.Nick
	}
	return target
}

func (b *bot) DidStartUp() error {
	b.logger.Log("Bot initialization complete")
	return nil
}

func (b *bot) PrivateMessage(sender irc.Sender, nick, text string) error {
	b.logger.Logf("[bot] private message from %s: %s", sender.Mask(), text)
	return b.client.Privmsg(sender.Nick, "Hi! Type !help for a list of commands")
}

func (b *bot) MentionsMe(sender irc.Sender, channel, text string) error {
	return b.client.Privmsg(channel, fmt.Sprintf("%s: type !help for a list of commands", sender.Nick))
}

func (b *bot) Joined(sender irc.Sender, channel string) error {
	b.logger.Logf("[bot] %s joined %s", sender.Nick, channel)
	return nil
}

func (b *bot) Kick(sender irc.Sender, channel, victim, reason string) error {
	b.logger.Logf("[bot] %s kicked %s from %s (%s)", sender.Nick, victim, channel, reason)
	return nil
}

func (b *bot) cmdHelp(sender irc.Sender, target, args string) error {
	help := []string{
		"Available commands:",
		"!help - shows this list",
		"!version - displays bot version information",
		"!ping [text] - replies with pong",
	}
	return b.client.Privmsg(sender.Nick, strings.Join(help, "\n"))
}

func (b *bot) cmdVersion(sender irc.Sender, target, args string) error {
	lines := []string{
		fmt.Sprintf("summer version %s", irc.Version),
		fmt.Sprintf("Built: %s", irc.BuildDate),
		fmt.Sprintf("Commit: %s", irc.GitCommit),
	}
	return b.client.Privmsg(b.replyTarget(sender, target), strings.Join(lines, "\n"))
}

func (b *bot) cmdPing(sender irc.Sender, target, args string) error {
	reply := "pong"
	if args != "" {
		reply += " " + args
	}
	return b.client.Privmsg(b.replyTarget(sender, target), fmt.Sprintf("%s: %s", sender.Nick, reply))
}
