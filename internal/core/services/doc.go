// Package services contains the application core: index lifecycle,
// retrieval, prompt assembly, session handling and answer generation.
// Services depend only on domain types and ports, never on adapters.
package services
