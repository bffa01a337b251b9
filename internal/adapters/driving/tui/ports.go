// Package tui provides the interactive chat interface for tread.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/tread-cli/internal/core/ports/driving"
	"github.com/custodia-labs/tread-cli/internal/core/services"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant answers catalog questions.
	Assistant driving.AssistantService

	// Indexer loads and rebuilds the catalog index.
	Indexer driving.IndexerService

	// Status reports index health for the status bar.
	Status driving.StatusService

	// Sessions owns conversation history for chat sessions.
	Sessions *services.SessionManager
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	assistant driving.AssistantService,
	indexer driving.IndexerService,
	status driving.StatusService,
	sessions *services.SessionManager,
) *Ports {
	return &Ports{
		Assistant: assistant,
		Indexer:   indexer,
		Status:    status,
		Sessions:  sessions,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	if p.Indexer == nil {
		return ErrMissingIndexerService
	}
	if p.Status == nil {
		return ErrMissingStatusService
	}
	if p.Sessions == nil {
		return ErrMissingSessionManager
	}
	return nil
}
