// Package transcript provides the conversation display component for the TUI.
package transcript

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/tread-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// Exchange is one question/answer pair in the conversation.
type Exchange struct {
	// Question is the user's question.
	Question string

	// Answer is the generated answer, empty while pending.
	Answer string

	// Citations are the catalog segments the answer was grounded on.
	Citations []domain.TextSegment

	// Err holds the failure when the exchange could not be answered.
	Err error

	// Pending marks an exchange still waiting for its answer.
	Pending bool
}

// Transcript displays the conversation as a scrollable log.
type Transcript struct {
	exchanges     []Exchange
	styles        *styles.Styles
	width         int
	height        int
	scroll        int
	showCitations bool
}

// NewTranscript creates a new transcript component.
func NewTranscript(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &Transcript{
		styles:        s,
		width:         80,
		height:        14,
		showCitations: true,
	}
}

// Init initialises the transcript.
func (t *Transcript) Init() tea.Cmd {
	return nil
}

// Update handles scrolling messages.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		//nolint:exhaustive // handling only relevant key types
		switch msg.Type {
		case tea.KeyUp, tea.KeyPgUp:
			t.ScrollUp()
		case tea.KeyDown, tea.KeyPgDown:
			t.ScrollDown()
		default:
			// Other keys belong to the input.
		}
	}
	return t, nil
}

// Append adds a pending exchange for a just-submitted question.
func (t *Transcript) Append(question string) {
	t.exchanges = append(t.exchanges, Exchange{
		Question: question,
		Pending:  true,
	})
	t.ScrollToBottom()
}

// Resolve fills in the answer for the most recent pending exchange.
func (t *Transcript) Resolve(bundle *domain.AnswerBundle, err error) {
	for i := len(t.exchanges) - 1; i >= 0; i-- {
		if !t.exchanges[i].Pending {
			continue
		}
		t.exchanges[i].Pending = false
		t.exchanges[i].Err = err
		if bundle != nil {
			t.exchanges[i].Answer = bundle.Answer
			t.exchanges[i].Citations = bundle.CitedSegments
		}
		break
	}
	t.ScrollToBottom()
}

// Clear drops the whole conversation.
func (t *Transcript) Clear() {
	t.exchanges = nil
	t.scroll = 0
}

// ToggleCitations flips citation display.
func (t *Transcript) ToggleCitations() {
	t.showCitations = !t.showCitations
	t.ScrollToBottom()
}

// CitationsShown reports whether citations are rendered.
func (t *Transcript) CitationsShown() bool {
	return t.showCitations
}

// Exchanges returns the conversation so far.
func (t *Transcript) Exchanges() []Exchange {
	return t.exchanges
}

// Len returns the number of exchanges.
func (t *Transcript) Len() int {
	return len(t.exchanges)
}

// View renders the visible window of the conversation.
func (t *Transcript) View() string {
	lines := t.renderLines()
	if len(lines) == 0 {
		return t.styles.Muted.Render("Posez une question sur le catalogue.")
	}

	start := t.scroll
	if start > len(lines)-t.height {
		start = len(lines) - t.height
	}
	if start < 0 {
		start = 0
	}
	end := start + t.height
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

// renderLines flattens the conversation into styled lines.
func (t *Transcript) renderLines() []string {
	var lines []string

	for i := range t.exchanges {
		e := &t.exchanges[i]
		if i > 0 {
			lines = append(lines, "")
		}

		lines = append(lines, t.styles.User.Render("Vous: ")+t.styles.Normal.Render(e.Question))

		switch {
		case e.Pending:
			lines = append(lines, t.styles.Muted.Render("..."))
		case e.Err != nil:
			lines = append(lines, t.styles.Error.Render("Erreur: "+e.Err.Error()))
		default:
			for _, answerLine := range strings.Split(e.Answer, "\n") {
				lines = append(lines, t.styles.Assistant.Render(answerLine))
			}
			if t.showCitations && len(e.Citations) > 0 {
				lines = append(lines, t.styles.Citation.Render(renderCitations(e.Citations)))
			}
		}
	}

	return lines
}

// renderCitations lists the distinct cited products on one line.
func renderCitations(citations []domain.TextSegment) string {
	seen := make(map[string]bool, len(citations))
	names := make([]string, 0, len(citations))
	for _, c := range citations {
		if seen[c.ProductID] {
			continue
		}
		seen[c.ProductID] = true
		names = append(names, fmt.Sprintf("%s (%s)", c.ProductName, c.ProductID))
	}
	return "Sources: " + strings.Join(names, ", ")
}

// ScrollUp moves the window one line up.
func (t *Transcript) ScrollUp() {
	if t.scroll > 0 {
		t.scroll--
	}
}

// ScrollDown moves the window one line down.
func (t *Transcript) ScrollDown() {
	if t.scroll < t.maxScroll() {
		t.scroll++
	}
}

// ScrollToBottom jumps to the newest lines.
func (t *Transcript) ScrollToBottom() {
	t.scroll = t.maxScroll()
}

func (t *Transcript) maxScroll() int {
	overflow := len(t.renderLines()) - t.height
	if overflow < 0 {
		return 0
	}
	return overflow
}

// SetDimensions sets the transcript window size.
func (t *Transcript) SetDimensions(width, height int) {
	t.width = width
	if height < 1 {
		height = 1
	}
	t.height = height
}
