// Package keys maps the console's single-letter shortcuts onto desk actions.
package keys

import (
	"strings"
)

// Command is a recognised shortcut.
type Command int

const (
	None Command = iota
	Next
	Call
	Save
)

func (c Command) String() string {
	switch c {
	case Next:
		return "next"
	case Call:
		return "call"
	case Save:
		return "save"
	}
	return "none"
}

// Binding describes one shortcut for help screens.
type Binding struct {
	Key     string
	Command Command
	Help    string
}

// Bindings lists the shortcuts in display order.
var Bindings = []Binding{
	{Key: "N", Command: Next, Help: "advance to the next debtor and reset the pending result"},
	{Key: "C", Command: Call, Help: "start the call, or end it when one is live"},
	{Key: "S", Command: Save, Help: "save the interaction; ends a live call first"},
}

// Parse returns the command bound to key, ignoring case. Only single
// characters are bound; a shifted letter may arrive as "shift+c".
func Parse(key string) Command {
	switch strings.TrimPrefix(strings.ToLower(key), "shift+") {
	case "n":
		return Next
	case "c":
		return Call
	case "s":
		return Save
	}
	return None
}

// Target receives dispatched commands.
type Target interface {
	Next() error
	ToggleCall() error
	Save() error
}

// Focus reports the state that gates the shortcuts.
type Focus struct {
	LoggedIn     bool
	InputFocused bool
}

// Enabled reports whether shortcuts should be honoured.
func (f Focus) Enabled() bool {
	return f.LoggedIn && !f.InputFocused
}

// Dispatcher routes key presses to a Target.
type Dispatcher struct {
	target Target
}

// NewDispatcher returns a dispatcher for t.
func NewDispatcher(t Target) *Dispatcher {
	return &Dispatcher{target: t}
}

// Dispatch runs the command bound to key. handled is false when the key is
// unbound or the shortcuts are disabled by focus, in which case the key
// belongs to whoever has focus.
func (d *Dispatcher) Dispatch(key string, focus Focus) (cmd Command, handled bool, err error) {
	if !focus.Enabled() {
		return None, false, nil
	}
	cmd = Parse(key)
	switch cmd {
	case Next:
		err = d.target.Next()
	case Call:
		err = d.target.ToggleCall()
	case Save:
		err = d.target.Save()
	default:
		return None, false, nil
	}
	return cmd, true, err
}
