package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
	"github.com/custodia-labs/tread-cli/internal/core/services"
)

// App is the chat TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	// session owns the conversation history passed to the assistant.
	// Turns are bounded; the oldest are evicted first.
	session *services.Session

	// currentView tracks which view is active.
	currentView messages.ViewType

	// busy blocks new questions while one is being answered.
	busy bool

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		transcript:  transcript.NewTranscript(s),
		statusbar:   status.NewBar(s, km),
		session:     ports.Sessions.Open(),
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It loads the persisted index and runs initial commands.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("tread - Catalog Assistant"),
		a.input.Init(),
		a.loadIndex(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.SetWidth(msg.Width)
		// Reserve space for header, input and status bar.
		a.transcript.SetDimensions(msg.Width, msg.Height-8)
		a.statusbar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		return a.handleAnswerCompleted(msg)

	case messages.IndexLoaded:
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrIndexNotLoaded) {
			a.err = msg.Err
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
			return a, nil
		}
		return a, a.loadStatus()

	case messages.RebuildCompleted:
		a.busy = false
		if msg.Err != nil {
			a.err = msg.Err
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.statusbar.Clear()
		return a, a.loadStatus()

	case messages.StatusLoaded:
		a.statusbar.SetIndexStatus(msg.Status)
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, a.keymap.Quit) {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(keyStr, a.keymap.Back) || keymap.Matches(keyStr, a.keymap.Help) {
			a.currentView = messages.ViewChat
		}
		return a, nil
	}

	switch {
	case keymap.Matches(keyStr, a.keymap.Help):
		a.currentView = messages.ViewHelp
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Clear):
		a.transcript.Clear()
		a.ports.Sessions.Close(a.session.ID())
		a.session = a.ports.Sessions.Open()
		a.err = nil
		a.statusbar.Clear()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Citations):
		a.transcript.ToggleCitations()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Rebuild):
		if a.busy {
			return a, nil
		}
		a.busy = true
		a.statusbar.SetState(status.StateRebuilding)
		return a, a.rebuild()

	case keymap.Matches(keyStr, a.keymap.Up):
		a.transcript.ScrollUp()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Down):
		a.transcript.ScrollDown()
		return a, nil

	case keymap.Matches(keyStr, a.keymap.Submit):
		return a.submitQuestion()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// submitQuestion sends the current input to the assistant.
func (a *App) submitQuestion() (tea.Model, tea.Cmd) {
	question := strings.TrimSpace(a.input.Value())
	if question == "" || a.busy {
		return a, nil
	}

	a.busy = true
	a.err = nil
	a.transcript.Append(question)
	a.input.Reset()
	a.statusbar.SetState(status.StateThinking)

	// Snapshot the history before the new turn so the prompt sees the
	// conversation as it was when the question was asked.
	return a, a.ask(question, a.session.History())
}

// handleAnswerCompleted folds an answer into the transcript and history.
func (a *App) handleAnswerCompleted(msg messages.AnswerCompleted) (tea.Model, tea.Cmd) {
	a.busy = false
	a.transcript.Resolve(msg.Bundle, msg.Err)

	if msg.Err != nil {
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil
	}

	a.session.Append(domain.RoleUser, msg.Question)
	a.session.Append(domain.RoleAssistant, msg.Bundle.Answer)
	a.statusbar.Clear()
	return a, a.loadStatus()
}

// ask answers a question in the background.
func (a *App) ask(question string, history []domain.ConversationTurn) tea.Cmd {
	return func() tea.Msg {
		bundle, err := a.ports.Assistant.Answer(a.ctx, question, history)
		return messages.AnswerCompleted{Question: question, Bundle: bundle, Err: err}
	}
}

// loadIndex loads the persisted index in the background.
func (a *App) loadIndex() tea.Cmd {
	return func() tea.Msg {
		return messages.IndexLoaded{Err: a.ports.Indexer.EnsureLoaded(a.ctx)}
	}
}

// rebuild re-indexes the catalog in the background.
func (a *App) rebuild() tea.Cmd {
	return func() tea.Msg {
		meta, err := a.ports.Indexer.Rebuild(a.ctx)
		return messages.RebuildCompleted{Metadata: meta, Err: err}
	}
}

// loadStatus refreshes the index health shown in the status bar.
func (a *App) loadStatus() tea.Cmd {
	return func() tea.Msg {
		return messages.StatusLoaded{Status: a.ports.Status.Status(a.ctx)}
	}
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.currentView == messages.ViewHelp {
		return a.viewHelp()
	}
	return a.viewChat()
}

// viewChat renders the conversation view.
func (a *App) viewChat() string {
	sections := []string{
		a.styles.Title.Render("tread"),
		"",
		a.transcript.View(),
		"",
		a.input.View(),
		"",
		a.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Chat:
  (type)      Enter a question
  enter       Ask
  ctrl+l      New conversation
  ctrl+o      Toggle citations

Index:
  ctrl+r      Rebuild the catalog index

Navigation:
  ↑/↓         Scroll the conversation
  ctrl+h      Toggle help
  esc         Back to chat
  ctrl+c      Quit

[esc] back to chat`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// History returns the retained conversation turns, oldest first.
func (a *App) History() []domain.ConversationTurn {
	return a.session.History()
}

// Busy reports whether a question or rebuild is in flight.
func (a *App) Busy() bool {
	return a.busy
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.input.SetWidth(width)
	a.transcript.SetDimensions(width, height-8)
	a.statusbar.SetWidth(width)
}
