package theme

import "github.com/charmbracelet/lipgloss/v2"

// Theme centralizes Lip Gloss styles for the console.
type Theme struct {
	Header HeaderTheme
	Queue  QueueTheme
	Panel  PanelTheme
	Call   CallTheme
	Footer FooterTheme
	Modal  ModalTheme
}

// HeaderTheme styles the top bar.
type HeaderTheme struct {
	Title lipgloss.Style
	User  lipgloss.Style
	Meta  lipgloss.Style
}

// QueueTheme styles the debtor list.
type QueueTheme struct {
	Selected lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Risk     map[string]lipgloss.Style
}

// PanelTheme styles framed panels and headings.
type PanelTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Label lipgloss.Style
	Body  lipgloss.Style
}

// CallTheme styles the call panel.
type CallTheme struct {
	Live      lipgloss.Style
	Idle      lipgloss.Style
	Timer     lipgloss.Style
	Recording lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help   lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Prompt lipgloss.Style
}

// ModalTheme styles centered modal overlays such as the login form.
type ModalTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
}

// Default returns the built-in theme used across the console.
func Default() Theme {
	return Theme{
		Header: HeaderTheme{
			Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
			User:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			Meta:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		},
		Queue: QueueTheme{
			Selected: lipgloss.NewStyle().Reverse(true),
			Normal:   lipgloss.NewStyle(),
			Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			Risk: map[string]lipgloss.Style{
				"low":      lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")),
				"medium":   lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
				"high":     lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
				"critical": lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626")).Bold(true),
			},
		},
		Panel: PanelTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1),
			Title: lipgloss.NewStyle().Bold(true),
			Label: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Body:  lipgloss.NewStyle(),
		},
		Call: CallTheme{
			Live:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
			Idle:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Timer:     lipgloss.NewStyle().Bold(true),
			Recording: lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		},
		Footer: FooterTheme{
			Help:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
			Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(1, 2),
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
		},
	}
}
