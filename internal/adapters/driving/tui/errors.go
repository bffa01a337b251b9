package tui

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("tui: assistant service is required")

// ErrMissingIndexerService is returned when the indexer service is not provided.
var ErrMissingIndexerService = errors.New("tui: indexer service is required")

// ErrMissingStatusService is returned when the status service is not provided.
var ErrMissingStatusService = errors.New("tui: status service is required")

// ErrMissingSessionManager is returned when the session manager is not provided.
var ErrMissingSessionManager = errors.New("tui: session manager is required")
