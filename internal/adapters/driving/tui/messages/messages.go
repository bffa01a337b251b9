// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/tread-cli/internal/core/domain"
)

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerCompleted carries a generated answer back to the model.
type AnswerCompleted struct {
	Question string
	Bundle   *domain.AnswerBundle
	Err      error
}

// IndexLoaded signals the persisted index finished loading.
type IndexLoaded struct {
	Err error
}

// RebuildCompleted signals a catalog re-index finished.
type RebuildCompleted struct {
	Metadata domain.IndexMetadata
	Err      error
}

// StatusLoaded carries the current index status.
type StatusLoaded struct {
	Status domain.IndexStatus
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
