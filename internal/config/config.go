package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/gobwas/glob"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = 6667
	DefaultFloodInterval = 900 * time.Millisecond
	DefaultQueueSize     = 256
	DefaultRetryDelay    = 60 * time.Second
)

// nickPattern follows the RFC 2812 nickname grammar.
const nickPattern = "^[A-Za-z\\[\\]\\\\`_^{|}][A-Za-z0-9\\[\\]\\\\`_^{|}-]*$"

// Config holds all bot configuration
type Config struct {
	Server           string   `yaml:"server"`
	Port             int      `yaml:"port"`
	Nick             string   `yaml:"nick"`
	Username         string   `yaml:"username"`
	IRCName          string   `yaml:"irc_name"`
	ServerPass       string   `yaml:"server_pass"`
	Channels         []string `yaml:"channels"`
	Channel          string   `yaml:"channel"`
	NickServPassword string   `yaml:"nickserv_password"`
	NickServEmail    string   `yaml:"nickserv_email"`
	AutoRejoin       bool     `yaml:"auto_rejoin"`
	LogFile          string   `yaml:"log_file"`

	// Proxy is a socks5:// URL the connection is dialed through.
	Proxy string `yaml:"proxy"`
	// Encoding names the charset used on the wire; empty means UTF-8.
	Encoding      string        `yaml:"encoding"`
	FloodInterval time.Duration `yaml:"flood_interval"`
	QueueSize     int           `yaml:"queue_size"`
	Reconnect     Reconnect     `yaml:"reconnect"`
	// Ignore lists nick!user@host glob masks whose events are not dispatched.
	Ignore []string `yaml:"ignore"`
	Debug  bool     `yaml:"debug"`
}

// Reconnect is the retry policy applied when a connection attempt fails.
type Reconnect struct {
	Delay    time.Duration `yaml:"delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
	// MaxAttempts of 0 retries forever.
	MaxAttempts int `yaml:"max_attempts"`
}

var encodings = map[string]encoding.Encoding{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return &cfg, nil
}

// SetDefaults fills in zero-valued optional fields.
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Username == "" {
		c.Username = c.Nick
	}
	if c.IRCName == "" {
		c.IRCName = c.Nick
	}
	if c.FloodInterval == 0 {
		c.FloodInterval = DefaultFloodInterval
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.Reconnect.Delay == 0 {
		c.Reconnect.Delay = DefaultRetryDelay
	}
	if c.Reconnect.MaxDelay < c.Reconnect.Delay {
		c.Reconnect.MaxDelay = c.Reconnect.Delay
	}
}

// Validate reports the first problem found in the configuration.
func (c *Config) Validate() error {
	if c.Nick == "" {
		return errors.New("nick is required")
	}
	if !govalidator.Matches(c.Nick, nickPattern) {
		return fmt.Errorf("nick %q is not a valid nickname", c.Nick)
	}
	if c.Server == "" {
		return errors.New("server is required")
	}
	if !govalidator.IsHost(c.Server) {
		return fmt.Errorf("server %q is not a valid host", c.Server)
	}
	if !govalidator.IsPort(strconv.Itoa(c.Port)) {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.NickServEmail != "" && !govalidator.IsEmail(c.NickServEmail) {
		return fmt.Errorf("nickserv_email %q is not an email address", c.NickServEmail)
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("failed to parse proxy: %w", err)
		}
		if u.Scheme != "socks5" && u.Scheme != "socks5h" {
			return fmt.Errorf("proxy scheme %q is not supported", u.Scheme)
		}
	}
	if _, err := c.LineEncoding(); err != nil {
		return err
	}
	if c.FloodInterval < 0 {
		return errors.New("flood_interval must not be negative")
	}
	if c.QueueSize < 0 {
		return errors.New("queue_size must not be negative")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return errors.New("reconnect.max_attempts must not be negative")
	}
	for _, mask := range c.Ignore {
		if _, err := glob.Compile(mask); err != nil {
			return fmt.Errorf("failed to compile ignore mask %q: %w", mask, err)
		}
	}
	return nil
}

// JoinList returns the channels to join after registration: Channels followed by
// the legacy Channel, deduplicated, with blank entries removed.
func (c *Config) JoinList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range append(append([]string{}, c.Channels...), c.Channel) {
		ch = strings.TrimSpace(ch)
		if ch == "" || seen[strings.ToLower(ch)] {
			continue
		}
		seen[strings.ToLower(ch)] = true
		out = append(out, ch)
	}
	return out
}

// Addr returns the server address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server, c.Port)
}

// LineEncoding returns the configured wire encoding, or nil for UTF-8.
func (c *Config) LineEncoding() (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(c.Encoding))
	if name == "" || name == "utf-8" || name == "utf8" {
		return nil, nil
	}
	enc, ok := encodings[name]
	if !ok {
		return nil, fmt.Errorf("encoding %q is not supported", c.Encoding)
	}
	return enc, nil
}
