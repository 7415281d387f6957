package irc

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/go-log/log"
	"golang.org/x/text/encoding"
)

// maxLineLen is the RFC 1459 limit, including the trailing CRLF.
const maxLineLen = 512

// Writer serializes every line written to the server connection.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	enc    *encoding.Encoder
	logger log.Logger
}

// NewWriter wraps w. A nil enc writes UTF-8 unchanged.
func NewWriter(w io.Writer, enc encoding.Encoding, logger log.Logger) *Writer {
	if logger == nil {
		logger = log.DefaultLogger
	}
	wr := &Writer{w: w, logger: logger}
	if enc != nil {
		wr.enc = encoding.ReplaceUnsupported(enc.NewEncoder())
	}
	return wr
}

// Send logs and writes a raw protocol line followed by CRLF.
func (w *Writer) Send(line string) error {
	line = strings.TrimRight(line, "\r\n")

	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.Logf(">> %s", redact(line))

	data := []byte(line + "\r\n")
	if w.enc != nil {
		encoded, err := w.enc.Bytes(data)
		if err != nil {
			return fmt.Errorf("failed to encode line: %w", err)
		}
		data = encoded
	}

	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	return nil
}

// Command builds a line from a command and its parameters and sends it.
// Parameters containing CR, LF or NUL are rejected; lines over 512 bytes are
// truncated. PRIVMSG text is always sent in trailing form.
func (w *Writer) Command(command string, params ...string) error {
	msg := ircmsg.MakeMessage(nil, "", command, params...)
	if command == "PRIVMSG" || command == "QUIT" {
		msg.ForceTrailing()
	}

	line, err := msg.LineBytesStrict(true, maxLineLen)
	if err != nil {
		if !errors.Is(err, ircmsg.ErrorBodyTooLong) {
			return fmt.Errorf("failed to build %s line: %w", command, err)
		}
		w.logger.Logf("[irc] %s line truncated to %d bytes", command, maxLineLen)
	}

	return w.Send(string(line))
}

// nickservSecrets are the NickServ verbs whose arguments carry a password.
var nickservSecrets = map[string]bool{
	"REGISTER": true,
	"IDENTIFY": true,
	"GHOST":    true,
	"RELEASE":  true,
}

// redact hides the password in PASS and NickServ lines before they are logged.
func redact(line string) string {
	parts := strings.SplitN(line, " ", 3)
	switch strings.ToUpper(parts[0]) {
	case "PASS":
		if len(parts) > 1 {
			return parts[0] + " ***"
		}
	case "PRIVMSG":
		if len(parts) < 3 || !strings.EqualFold(parts[1], "nickserv") {
			return line
		}
		verb, _, _ := strings.Cut(strings.TrimPrefix(parts[2], ":"), " ")
		if nickservSecrets[strings.ToUpper(verb)] {
			return parts[0] + " " + parts[1] + " :" + verb + " ***"
		}
	}
	return line
}
