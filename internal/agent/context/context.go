// Package context builds the system prompt and the message list sent to the
// LLM for one conversation turn.
package context

import (
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/aatumaykin/mailbot/internal/llm"
	"github.com/aatumaykin/mailbot/internal/timeparse"
	"github.com/aatumaykin/mailbot/internal/tools"
	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is used when no prompt file is configured.
const DefaultSystemPrompt = `Jestes pomocnym botem do planowania wysylki emaili.

INSTRUKCJE:
1. Analizuj wiadomosci uzytkownikow i wyciagaj informacje o planowanym emailu
2. Zawsze wysylaj emaile na adres: {{.TargetEmail}}
3. Sam decyduj jaki ma byc temat i tresc emaila na podstawie wiadomosci od uzytkownika.
4. Daty podawaj w formacie: DD.MM.RRRR HH:MM, HH:MM lub "za X minut/godzin/dni"
5. Przed ustaleniem daty wysylki emaila zawsze wywolaj funkcje {{.TimeTool}}() aby uzyskac aktualna date i godzine
6. Pamietaj, ze Twoim glownym zadaniem jest planowanie wysylki emaili.

DOSTEPNE FUNKCJE:
- {{.TimeTool}}(): Zwraca aktualna date i godzine w formacie DD.MM.RRRR HH:MM
- {{.EmailTool}}(): Zwraca aktualny email uzytkownika na ktory beda wysylane emaile

FORMAT ODPOWIEDZI:
- Jesli masz wszystkie dane: "GOTOWE: temat|tresc|data_wysylki"
- Jesli uzytkownik chce dolaczyc plik: "ZAŁĄCZNIK: opis potrzebnego pliku"

Przyklad kompletnych danych:
GOTOWE: Przypomnienie o spotkaniu|Spotkanie za 15 minut w sali konferencyjnej|za 2 godziny`

// PromptFile is the YAML layout of a prompt override file.
//
//	system: |
//	  You schedule emails for {{.TargetEmail}} ...
type PromptFile struct {
	System string `yaml:"system"`
}

// Data is the template input of the system prompt.
type Data struct {
	TargetEmail string
	Now         string
	TimeTool    string
	EmailTool   string
}

// Config holds configuration for the context builder.
type Config struct {
	PromptFile string // optional YAML override
	Now        func() time.Time
}

// Builder renders the system prompt and assembles chat requests.
type Builder struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewBuilder parses the prompt template, from PromptFile when set.
func NewBuilder(cfg Config) (*Builder, error) {
	text := DefaultSystemPrompt
	if cfg.PromptFile != "" {
		loaded, err := LoadPromptFile(cfg.PromptFile)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(loaded.System) != "" {
			text = loaded.System
		}
	}

	tmpl, err := template.New("system").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt template: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Builder{tmpl: tmpl, now: now}, nil
}

// LoadPromptFile reads a YAML prompt override.
func LoadPromptFile(path string) (*PromptFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}
	var pf PromptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}
	return &pf, nil
}

// Build renders the system prompt for a user whose mail goes to targetEmail.
func (b *Builder) Build(targetEmail string) (string, error) {
	var sb strings.Builder
	err := b.tmpl.Execute(&sb, Data{
		TargetEmail: targetEmail,
		Now:         timeparse.Format(b.now()),
		TimeTool:    tools.CurrentTimeToolName,
		EmailTool:   tools.TargetEmailToolName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return sb.String(), nil
}

// BuildMessages prepends the system prompt to history. Turns with empty
// content are dropped.
func (b *Builder) BuildMessages(targetEmail string, history []llm.Message) ([]llm.Message, error) {
	system, err := b.Build(targetEmail)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history {
		if m.Content == "" && len(m.ToolCalls) == 0 {
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}
