package domain

import "strings"

const (
	DefaultStyle    = "standard"
	DefaultCategory = "general"

	// MaxPromptRunes bounds the free-text prompt forwarded to the provider.
	MaxPromptRunes = 2000
)

// GenerationParams is the opaque bag of generation inputs captured at intake.
// Immutable after the job is created.
type GenerationParams struct {
	Style    string
	Category string
	Prompt   string
	Quality  string
}

// Normalize trims inputs and fills defaults so downstream consumers can rely
// on the shape without re-checking.
func (p *GenerationParams) Normalize() {
	p.Style = strings.ToLower(strings.TrimSpace(p.Style))
	if p.Style == "" {
		p.Style = DefaultStyle
	}
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	if runes := []rune(p.Prompt); len(runes) > MaxPromptRunes {
		p.Prompt = string(runes[:MaxPromptRunes])
	}
	p.Quality = strings.ToLower(strings.TrimSpace(p.Quality))
}
