package irc

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreList matches senders against nick!user@host glob masks.
type IgnoreList struct {
	masks []glob.Glob
}

// NewIgnoreList compiles masks such as "*!*@spam.example.com".
// Matching is case-insensitive.
func NewIgnoreList(masks []string) (*IgnoreList, error) {
	l := &IgnoreList{}
	for _, mask := range masks {
		g, err := glob.Compile(strings.ToLower(mask))
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore mask %q: %w", mask, err)
		}
		l.masks = append(l.masks, g)
	}
	return l, nil
}

// Match reports whether s is ignored.
func (l *IgnoreList) Match(s Sender) bool {
	if l == nil || s.Nick == "" {
		return false
	}
	mask := strings.ToLower(s.Mask())
	for _, g := range l.masks {
		if g.Match(mask) {
			return true
		}
	}
	return false
}
