package driven

// Prompt template names.
const (
	// PromptAnswer is the grounded-answer template. It receives the
	// packed context, the conversation history and the user question.
	PromptAnswer = "answer"
)

// PromptStore loads user-customisable prompt templates by name and
// language. Implementations fall back to built-in defaults when no
// custom template exists.
type PromptStore interface {
	// Load returns the template for the given name and language.
	Load(name, language string) (string, error)
}
