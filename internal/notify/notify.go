package notify

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// ErrNotificationDenied is returned when notifications are switched off.
var ErrNotificationDenied = errors.New("notification permission denied")

// Notifier shows a message to the user. Delivery is best effort.
type Notifier interface {
	Notify(msg string, kind Kind) error
}

// Gate forwards to a Notifier only while permission is granted.
type Gate struct {
	next    Notifier
	mu      sync.RWMutex
	granted bool
}

// NewGate wraps next. A nil next drops everything silently.
func NewGate(next Notifier, granted bool) *Gate {
	return &Gate{next: next, granted: granted}
}

// SetGranted flips the permission.
func (g *Gate) SetGranted(on bool) {
	g.mu.Lock()
	g.granted = on
	g.mu.Unlock()
}

func (g *Gate) Notify(msg string, kind Kind) error {
	g.mu.RLock()
	granted := g.granted
	g.mu.RUnlock()
	if !granted {
		return ErrNotificationDenied
	}
	if g.next == nil {
		return nil
	}
	return g.next.Notify(msg, kind)
}

// Console prints notifications with a colored prefix.
type Console struct {
	w  io.Writer
	mu sync.Mutex
}

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console { return &Console{w: w} }

var prefixes = map[Kind]*color.Color{
	KindSuccess: color.New(color.FgGreen, color.Bold),
	KindWarning: color.New(color.FgYellow, color.Bold),
	KindError:   color.New(color.FgRed, color.Bold),
	KindInfo:    color.New(color.FgCyan),
}

var symbols = map[Kind]string{
	KindSuccess: "[+]",
	KindWarning: "[!]",
	KindError:   "[-]",
	KindInfo:    "[*]",
}

func (c *Console) Notify(msg string, kind Kind) error {
	p, ok := prefixes[kind]
	if !ok {
		p, kind = prefixes[KindInfo], KindInfo
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "%s %s\n", p.Sprint(symbols[kind]), msg)
	return err
}
