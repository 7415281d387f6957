package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalnet/summer/internal/irc"
	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const historyFileName = ".summer_history"

// operator is the part of the client driven from the console.
type operator interface {
	JoinKey(channel, key string) error
	Part(channel string) error
	Privmsg(target, text string) error
	SendRaw(line string) error
	State() irc.State
	Quit(message string)
}

// console reads operator commands from stdin. It uses readline on a
// terminal and falls back to plain line reading otherwise.
type console struct {
	client operator
	out    io.Writer

	rl      *readline.Instance
	scanner *bufio.Scanner
}

func newConsole(client operator) *console {
	c := &console{client: client, out: os.Stdout}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		c.scanner = bufio.NewScanner(os.Stdin)
		return c
	}

	home, _ := os.UserHomeDir()
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:       "summer> ",
		HistoryFile:  filepath.Join(home, historyFileName),
		HistoryLimit: 500,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: readline init failed (%v), using basic input\n", err)
		c.scanner = bufio.NewScanner(os.Stdin)
		return c
	}
	c.rl = rl
	return c
}

func (c *console) readLine() (string, error) {
	if c.rl != nil {
		line, err := c.rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return line, err
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}

// Run reads commands until EOF or /quit.
func (c *console) Run() {
	for {
		line, err := c.readLine()
		if err != nil {
			return
		}
		quit, err := c.execute(line)
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

// Close releases the terminal.
func (c *console) Close() {
	if c.rl != nil {
		c.rl.Close()
		c.rl = nil
	}
}

var errUsage = errors.New("usage: /join <channel> [key] | /part <channel> | /msg <target> <text> | /raw <line> | /state | /quit [message]")

// execute runs one console command and reports whether the console should exit.
func (c *console) execute(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return false, errUsage
	}

	cmd, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "join":
		args := strings.Fields(rest)
		switch len(args) {
		case 1:
			return false, c.client.JoinKey(args[0], "")
		case 2:
			return false, c.client.JoinKey(args[0], args[1])
		}
		return false, errUsage
	case "part":
		args := strings.Fields(rest)
		if len(args) != 1 {
			return false, errUsage
		}
		return false, c.client.Part(args[0])
	case "msg":
		target, text, ok := strings.Cut(rest, " ")
		if !ok || strings.TrimSpace(text) == "" {
			return false, errUsage
		}
		return false, c.client.Privmsg(target, text)
	case "raw":
		if rest == "" {
			return false, errUsage
		}
		return false, c.client.SendRaw(rest)
	case "state":
		fmt.Fprintln(c.out, c.client.State())
		return false, nil
	case "quit":
		if rest == "" {
			rest = "Console closed"
		}
		c.client.Quit(rest)
		return true, nil
	case "help":
		fmt.Fprintln(c.out, errUsage.Error())
		return false, nil
	}
	return false, errUsage
}
