package irc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/dalnet/summer/internal/config"
	"github.com/ergochat/irc-go/ircreader"
	"github.com/go-log/log"
	"golang.org/x/text/encoding"
)

// Version information (set at build time or here)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

var (
	ErrNotConnected = errors.New("irc: not connected")
	ErrStopped      = errors.New("irc: client stopped")
	ErrQueueFull    = errors.New("irc: send queue is full")

	// ErrNickRejected ends a session whose nick was refused during registration.
	ErrNickRejected = errors.New("irc: nick rejected by server")
)

// State is the registration progress of a single connection attempt.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingHandshake
	Ready
	Started
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingHandshake:
		return "awaiting handshake"
	case Ready:
		return "ready"
	case Started:
		return "started"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Client represents the IRC bot client
type Client struct {
	cfg        config.Config
	dispatcher *Dispatcher
	ignore     *IgnoreList
	enc        encoding.Encoding
	logger     log.Logger

	// numerics maps the reply codes the client reacts to itself.
	numerics map[string]func(Event)

	// Dial opens the server connection. It defaults to a direct or
	// proxied TCP dialer built from the config.
	Dial DialFunc

	mu         sync.Mutex
	state      State
	conn       net.Conn
	writer     *Writer
	throttle   *Throttle
	stopWorker context.CancelFunc
	started    bool
	failure    error
	stopped    bool
	stop       chan struct{}
}

// NewClient creates a new IRC client. The configuration is copied and
// validated; h may be nil.
func NewClient(cfg *config.Config, h Handler, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.DefaultLogger
	}

	c := &Client{
		cfg:    *cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
	c.cfg.Channels = append([]string(nil), cfg.Channels...)
	c.cfg.Ignore = append([]string(nil), cfg.Ignore...)
	c.cfg.SetDefaults()
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var err error
	if c.enc, err = c.cfg.LineEncoding(); err != nil {
		return nil, err
	}
	if c.ignore, err = NewIgnoreList(c.cfg.Ignore); err != nil {
		return nil, err
	}
	if c.Dial, err = newDialer(c.cfg.Proxy); err != nil {
		return nil, err
	}

	c.dispatcher = NewDispatcher(h, logger)
	c.numerics = map[string]func(Event){
		"376": c.onEndOfMOTD,    // RPL_ENDOFMOTD
		"422": c.onEndOfMOTD,    // ERR_NOMOTD
		"432": c.onNickRejected, // ERR_ERRONEUSNICKNAME
		"433": c.onNickRejected, // ERR_NICKNAMEINUSE
	}

	return c, nil
}

// RegisterCommand binds fn to "!name" messages.
func (c *Client) RegisterCommand(name string, fn CommandFunc) {
	c.dispatcher.Register(name, fn)
}

// Nick returns the bot's configured nick.
func (c *Client) Nick() string {
	return c.cfg.Nick
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Client) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Connect opens the server connection and sends the registration commands.
func (c *Client) Connect(ctx context.Context) error {
	if c.isStopped() {
		return ErrStopped
	}

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errors.New("irc: already connected")
	}
	c.state = Connecting
	c.started = false
	c.failure = nil
	c.mu.Unlock()

	addr := c.cfg.Addr()
	c.logger.Logf("[irc] connecting to %s", addr)

	conn, err := c.Dial(ctx, "tcp", addr)
	if err != nil {
		c.setState(Disconnected)
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	w := NewWriter(conn, c.enc, c.logger)
	t := NewThrottle(w, c.cfg.FloodInterval, c.cfg.QueueSize, c.logger)
	workerCtx, cancel := context.WithCancel(context.Background())
	go t.Run(workerCtx)

	c.mu.Lock()
	c.conn = conn
	c.writer = w
	c.throttle = t
	c.stopWorker = cancel
	c.mu.Unlock()

	if err := c.register(w); err != nil {
		c.disconnect()
		return err
	}

	c.setState(AwaitingHandshake)
	return nil
}

func (c *Client) register(w *Writer) error {
	if c.cfg.ServerPass != "" {
		if err := w.Command("PASS", c.cfg.ServerPass); err != nil {
			return err
		}
	}
	if err := w.Command("USER", c.cfg.Username, c.cfg.Nick, c.cfg.Nick, c.cfg.IRCName); err != nil {
		return err
	}
	return w.Command("NICK", c.cfg.Nick)
}

// disconnect tears down the current connection and its throttle worker.
func (c *Client) disconnect() {
	c.mu.Lock()
	conn, cancel := c.conn, c.stopWorker
	c.conn = nil
	c.writer = nil
	c.throttle = nil
	c.stopWorker = nil
	c.state = Disconnected
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Loop runs the read loop on the current connection until it fails, ctx is
// cancelled or Stop is called. The connection is closed on return.
func (c *Client) Loop(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	defer c.disconnect()

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
		case <-c.stop:
		case <-finished:
			return
		}
		conn.Close()
	}()

	reader := ircreader.NewIRCReader(conn)
	for {
		raw, err := reader.ReadLine()
		if err != nil {
			switch {
			case c.isStopped():
				return ErrStopped
			case ctx.Err() != nil:
				return ctx.Err()
			}
			c.mu.Lock()
			failure := c.failure
			c.mu.Unlock()
			if failure != nil {
				return failure
			}
			return fmt.Errorf("failed to read from server: %w", err)
		}

		c.handleLine(c.decode(raw))
		c.maybeStartUp()
	}
}

func (c *Client) decode(raw []byte) string {
	if c.enc == nil {
		return string(raw)
	}
	line, err := c.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(line)
}

// handleLine classifies a line, performs the protocol-level reactions and
// passes the event to the dispatcher.
func (c *Client) handleLine(line string) {
	c.logger.Logf("<< %s", line)

	me := c.cfg.Nick
	ev := Classify(line, me)

	switch ev.Kind {
	case KindUnknown:
		if c.cfg.Debug {
			c.logger.Log("(ignored)")
		}
		return
	case KindPing:
		if err := c.SendRaw("PONG " + ev.Token); err != nil {
			c.logger.Logf("[irc] pong failed: %v", err)
		}
		return
	case KindNumeric:
		if fn := c.numerics[ev.Code]; fn != nil {
			fn(ev)
		}
		return
	}

	if c.ignore.Match(ev.Sender) {
		if c.cfg.Debug {
			c.logger.Logf("(ignored %s)", ev.Sender.Mask())
		}
	} else {
		c.dispatcher.Dispatch(ev, me)
	}

	if ev.Kind == KindKick && strings.EqualFold(ev.Victim, me) && c.cfg.AutoRejoin {
		c.logger.Logf("[irc] kicked from %s by %s, rejoining", ev.Target, ev.Sender.Nick)
		if err := c.Join(ev.Target); err != nil {
			c.logger.Logf("[irc] rejoin %s failed: %v", ev.Target, err)
		}
	}
}

func (c *Client) onEndOfMOTD(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != AwaitingHandshake {
		return
	}
	c.state = Ready
	c.logger.Log("[irc] connected to IRC server")
}

// onNickRejected drops a connection that can never finish registration.
// The nick is fixed, so the retry policy decides when to try again.
func (c *Client) onNickRejected(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != AwaitingHandshake || c.conn == nil {
		return
	}
	c.failure = fmt.Errorf("%w (%s %s)", ErrNickRejected, e.Code, c.cfg.Nick)
	c.logger.Logf("[irc] nick %s rejected with %s, closing connection", c.cfg.Nick, e.Code)
	c.conn.Close()
}

func (c *Client) maybeStartUp() {
	if c.State() == Ready {
		c.startup()
	}
}

// startup identifies to NickServ and joins the configured channels.
func (c *Client) startup() {
	c.logger.Log("[irc] starting up")

	if pass := c.cfg.NickServPassword; pass != "" {
		register := strings.TrimSpace(fmt.Sprintf("REGISTER %s %s", pass, c.cfg.NickServEmail))
		c.nickserv(register)
		c.nickserv("IDENTIFY " + pass)
	}

	for _, channel := range c.cfg.JoinList() {
		if err := c.Join(channel); err != nil {
			c.logger.Logf("[irc] join %s failed: %v", channel, err)
		}
	}

	c.mu.Lock()
	c.state = Started
	c.started = true
	c.mu.Unlock()

	c.logger.Log("[irc] bot initialization complete")
	c.dispatcher.DidStartUp()
}

func (c *Client) nickserv(text string) {
	w, err := c.currentWriter()
	if err == nil {
		err = w.Command("PRIVMSG", "nickserv", text)
	}
	if err != nil {
		c.logger.Logf("[irc] nickserv message failed: %v", err)
	}
}

func (c *Client) currentWriter() (*Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writer == nil {
		return nil, ErrNotConnected
	}
	return c.writer, nil
}

// SendRaw writes a protocol line as-is.
func (c *Client) SendRaw(line string) error {
	w, err := c.currentWriter()
	if err != nil {
		return err
	}
	return w.Send(line)
}

// Join joins a channel.
func (c *Client) Join(channel string) error {
	return c.JoinKey(channel, "")
}

// JoinKey joins a channel protected by key. An empty key sends a plain JOIN.
func (c *Client) JoinKey(channel, key string) error {
	w, err := c.currentWriter()
	if err != nil {
		return err
	}
	if key == "" {
		return w.Command("JOIN", channel)
	}
	return w.Command("JOIN", channel, key)
}

// Part leaves a channel.
func (c *Client) Part(channel string) error {
	w, err := c.currentWriter()
	if err != nil {
		return err
	}
	return w.Command("PART", channel)
}

// Privmsg queues a possibly multi-line message for target on the flood
// throttle. It does not wait for the lines to be sent.
func (c *Client) Privmsg(target, text string) error {
	c.mu.Lock()
	t := c.throttle
	c.mu.Unlock()
	if t == nil {
		return ErrNotConnected
	}
	return t.Privmsg(target, text)
}

// Stop ends the read loop and prevents any further reconnect.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
}

// Quit sends QUIT to the server and stops the client.
func (c *Client) Quit(message string) {
	if w, err := c.currentWriter(); err == nil {
		if err := w.Command("QUIT", message); err != nil {
			c.logger.Logf("[irc] quit failed: %v", err)
		}
	}
	c.Stop()
}

// Run connects and runs the read loop, reconnecting after failures with the
// configured backoff. Only consecutive failed sessions count towards
// MaxAttempts; a session that reached Started resets the count and the delay.
// It returns nil after Stop, ctx.Err() after cancellation, or the last error
// once the attempt limit is reached.
func (c *Client) Run(ctx context.Context) error {
	policy := c.cfg.Reconnect
	delay := policy.Delay
	attempts := 0

	for {
		err := c.Connect(ctx)
		if err == nil {
			err = c.Loop(ctx)
		}

		switch {
		case c.isStopped():
			c.logger.Log("[irc] client exited")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		c.mu.Lock()
		started := c.started
		c.mu.Unlock()
		c.logger.Logf("[irc] connection lost: %v", err)
		if started {
			attempts = 0
			delay = policy.Delay
		} else {
			attempts++
			if policy.MaxAttempts > 0 && attempts >= policy.MaxAttempts {
				return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
			}
		}

		c.logger.Logf("[irc] reconnecting in %s", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-c.stop:
			timer.Stop()
			return nil
		case <-timer.C:
		}

		delay = nextDelay(delay, policy.MaxDelay)
	}
}

// nextDelay doubles the backoff, capped at max.
func nextDelay(delay, max time.Duration) time.Duration {
	delay *= 2
	if delay > max {
		delay = max
	}
	return delay
}
