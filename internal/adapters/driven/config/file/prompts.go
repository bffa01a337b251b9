package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/tread-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads answer prompt templates from user-editable files on
// disk, falling back to embedded defaults.
//
// Files are only created when first accessed, not in the constructor,
// which keeps construction I/O-free.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// fallbackLanguage is used when no template exists for the requested
// language.
const fallbackLanguage = "fr"

// defaultPrompts contains the embedded templates, keyed "name.language".
// Placeholders, in order: retrieved context, conversation history, user
// question.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswer + ".fr": `Vous êtes un expert assistant Michelin. Utilisez le CONTEXTE pour recommander le meilleur produit en réponse à la question de l'utilisateur. Si vous ne trouvez pas de correspondance appropriée, répondez 'Je suis désolé, je n'ai pas trouvé de produit adapté à votre demande.'

CONTEXTE:
%s

HISTORIQUE:
%s

QUESTION: %s

Réponse (max 150 mots, incluez le nom du produit, les raisons et le lien):`,

	driven.PromptAnswer + ".en": `You are an expert Michelin assistant. Use the CONTEXT to recommend the best product in response to the user's question. If you don't find an appropriate match, respond 'I'm sorry, I couldn't find a suitable product for your needs.'

CONTEXT:
%s

HISTORY:
%s

QUESTION: %s

Response (max 150 words, include product name, reasons, and link):`,

	driven.PromptAnswer + ".it": `Sei un esperto assistente Michelin. Utilizza il CONTESTO per consigliare il miglior prodotto in risposta alla domanda dell'utente. Se non trovi corrispondenze appropriate, rispondi 'Mi dispiace, non ho trovato un prodotto adeguato alle tue esigenze.'

CONTESTO:
%s

CRONOLOGIA:
%s

DOMANDA: %s

Risposta (max 150 parole, includi nome prodotto, motivazioni e link):`,
}

// NewPromptStore creates a file-based prompt store. If promptDir is
// empty, defaults to ~/.tread/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".tread", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the template for the given name and language. On first
// call, initialises the prompt directory with the default files. A
// language without a template falls back to French, matching the
// shipped catalog.
func (s *PromptStore) Load(name, language string) (string, error) {
	key := name + "." + language
	if _, ok := defaultPrompts[key]; !ok {
		key = name + "." + fallbackLanguage
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[key]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(key)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[key]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", key, err)
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		prompt = cached
	} else {
		s.cache[key] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files. Called
// once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for key, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, fileName(key))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", key, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, fileName(key)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// fileName maps "answer.fr" to "answer_fr.txt".
func fileName(key string) string {
	return strings.ReplaceAll(key, ".", "_") + ".txt"
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Tread Prompts

This directory contains the answer templates used to ground the chat
model in retrieved catalog context.

## Files

- ` + "`answer_fr.txt`" + ` - French answer template (default language)
- ` + "`answer_en.txt`" + ` - English answer template
- ` + "`answer_it.txt`" + ` - Italian answer template

## Customisation

Edit any file to change how answers are produced. Changes take effect
on the next question after a restart or prompt reload.

## Format Placeholders

Templates use Go fmt placeholders, three ` + "`%s`" + ` slots in order:
1. Retrieved catalog context
2. Conversation history
3. The user's question

Ensure customised templates keep all three placeholders in order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
