// Package help renders the console's key reference.
package help

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/desk/pkg/keys"
)

//go:embed help.md
var source string

const (
	minWidth  = 32
	minHeight = 8
)

// Markdown returns the help page with the shortcut rows taken from
// keys.Bindings and the idle timeout filled in.
func Markdown(idle time.Duration) string {
	rows := make([]string, 0, len(keys.Bindings))
	for _, b := range keys.Bindings {
		rows = append(rows, fmt.Sprintf("| `%s` | %s |", b.Key, b.Help))
	}
	return strings.NewReplacer(
		"{{shortcuts}}", strings.Join(rows, "\n"),
		"{{idle}}", shortDuration(idle),
	).Replace(strings.TrimSpace(source))
}

// shortDuration drops zero trailing units: 10m rather than 10m0s.
func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

// Model is the help overlay: the rendered page in a scrolling viewport.
type Model struct {
	page     string
	text     string
	viewport viewport.Model
	frame    lipgloss.Style
	width    int
	height   int
}

// New renders the help page for a desk with the given idle timeout.
func New(idle time.Duration) *Model {
	m := &Model{
		page:     Markdown(idle),
		viewport: viewport.New(),
		frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()),
	}
	m.viewport.MouseWheelEnabled = true
	m.SetSize(80, 24)
	return m
}

// Update scrolls.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) View() string {
	return m.frame.Width(m.width).Height(m.height).Render(m.viewport.View())
}

// Text is the rendered page without styling.
func (m *Model) Text() string {
	return m.text
}

// SetSize fits the overlay to width x height, never below 32x8, and
// re-wraps the page when the size changes.
func (m *Model) SetSize(width, height int) {
	width, height = max(width, minWidth), max(height, minHeight)
	if width == m.width && height == m.height {
		return
	}
	m.width, m.height = width, height
	inner := width - m.frame.GetHorizontalFrameSize()
	m.viewport.SetWidth(inner)
	m.viewport.SetHeight(height - m.frame.GetVerticalFrameSize())
	m.text = render(m.page, inner)
	m.viewport.SetContent(m.text)
	m.viewport.SetYOffset(0)
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;:]*[A-Za-z~]`)

// render wraps page to width with glamour. The raw markdown is shown when
// glamour fails.
func render(page string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		var out string
		if out, err = r.Render(page); err == nil {
			return ansi.ReplaceAllString(out, "")
		}
	}
	return page
}
