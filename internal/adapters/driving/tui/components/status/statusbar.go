// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// State represents the current application state for display.
type State string

const (
	StateReady      State = "ready"
	StateThinking   State = "thinking"
	StateRebuilding State = "rebuilding"
	StateError      State = "error"
)

// Bar displays index health and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	index   domain.IndexStatus
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is mostly passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	padding := s.width - leftLen - rightLen
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the state and index health.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("Thinking...")
	case StateRebuilding:
		return s.styles.Muted.Render("Rebuilding index...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case StateReady:
		return s.renderIndexHealth()
	}
	return s.styles.Muted.Render("Ready")
}

// renderIndexHealth summarises the loaded index.
func (s *Bar) renderIndexHealth() string {
	if !s.index.Loaded {
		return s.styles.Warning.Render("No index - run rebuild")
	}

	health := fmt.Sprintf("%d segments | %s",
		s.index.Metadata.SegmentCount, s.index.Metadata.EmbeddingModel)
	if s.index.CatalogStale {
		return s.styles.Warning.Render(health + " | catalog changed")
	}
	return s.styles.Normal.Render(health)
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	bindings := s.keymap.ShortHelp()

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetIndexStatus sets the index health shown when ready.
func (s *Bar) SetIndexStatus(status domain.IndexStatus) {
	s.index = status
}

// IndexStatus returns the current index health.
func (s *Bar) IndexStatus() domain.IndexStatus {
	return s.index
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
