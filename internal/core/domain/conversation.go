package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is a single exchange entry owned by a session.
type ConversationTurn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// AnswerBundle is the immutable result of one answered question.
type AnswerBundle struct {
	// Answer is the generated answer text.
	Answer string

	// CitedSegments are the segments actually included in the prompt,
	// in the order they were packed. Callers display provenance from
	// this list without re-deriving it.
	CitedSegments []TextSegment
}
