package irc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-log/log"
)

// Dispatcher routes classified events to a Handler and to registered commands.
type Dispatcher struct {
	handler Handler
	logger  log.Logger

	mu       sync.RWMutex
	commands map[string]CommandFunc
}

// NewDispatcher creates a dispatcher for h. A nil handler behaves like NopHandler.
func NewDispatcher(h Handler, logger log.Logger) *Dispatcher {
	if h == nil {
		h = NopHandler{}
	}
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &Dispatcher{
		handler:  h,
		logger:   logger,
		commands: make(map[string]CommandFunc),
	}
}

// Register binds fn to "!name". Names are matched case-sensitively.
// Registering a nil fn removes the command.
func (d *Dispatcher) Register(name string, fn CommandFunc) {
	name = strings.TrimPrefix(name, "!")

	d.mu.Lock()
	defer d.mu.Unlock()
	if fn == nil {
		delete(d.commands, name)
		return
	}
	d.commands[name] = fn
}

func (d *Dispatcher) lookup(name string) CommandFunc {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.commands[name]
}

// DidStartUp notifies the handler that registration and channel joins are done.
func (d *Dispatcher) DidStartUp() {
	d.tryInvoke("did_start_up", d.handler.DidStartUp)
}

// Dispatch invokes the handler callback for ev. me is the bot's current nick,
// used to drop the bot's own JOINs.
func (d *Dispatcher) Dispatch(ev Event, me string) {
	h := d.handler
	s := ev.Sender

	switch ev.Kind {
	case KindPrivateMessage, KindChannelMessage, KindMention:
		if ev.Command != "" {
			if fn := d.lookup(ev.Command); fn != nil {
				d.tryInvoke(ev.Command+"_command", func() error {
					return fn(s, ev.Target, ev.Args)
				})
				return
			}
		}
		switch ev.Kind {
		case KindPrivateMessage:
			d.tryInvoke("private_message", func() error { return h.PrivateMessage(s, ev.Target, ev.Text) })
		case KindMention:
			d.tryInvoke("mentions_me_message", func() error { return h.MentionsMe(s, ev.Target, ev.Text) })
		default:
			d.tryInvoke("channel_message", func() error { return h.ChannelMessage(s, ev.Target, ev.Text) })
		}
	case KindJoin:
		if strings.EqualFold(s.Nick, me) {
			return
		}
		d.tryInvoke("joined", func() error { return h.Joined(s, ev.Target) })
	case KindPart:
		d.tryInvoke("part", func() error { return h.Part(s, ev.Target, ev.Text) })
	case KindQuit:
		d.tryInvoke("quit", func() error { return h.Quit(s, ev.Text) })
	case KindKick:
		d.tryInvoke("kick", func() error { return h.Kick(s, ev.Target, ev.Victim, ev.Text) })
	case KindMode:
		d.tryInvoke("mode", func() error { return h.Mode(s, ev.Target, ev.Mode, ev.ModeArgs) })
	}
}

// tryInvoke runs fn inside a fault boundary. Returned errors and panics are
// logged and swallowed.
func (d *Dispatcher) tryInvoke(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			d.logger.Logf("[dispatch] %s failed: %v", name, err)
		}
	}()
	return fn()
}
