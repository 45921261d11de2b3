// Package prompt assembles the system prompts sent to the AI provider for the
// chatbot and SEO use cases. Every function here is pure.
package prompt

// Persona is a named tone preset applied to the chatbot system prompt.
type Persona struct {
	Key         string
	Label       string
	Instruction string
}

// DefaultPersona is used when no persona, or an unknown one, is configured.
const DefaultPersona = "professional"

var personas = []Persona{
	{
		Key:         "professional",
		Label:       "Professional & Formal",
		Instruction: "Adopt a professional, formal, and polite tone. Avoid slang or overly casual language.",
	},
	{
		Key:         "friendly",
		Label:       "Friendly & Conversational",
		Instruction: "Adopt a very friendly, welcoming, and conversational tone. Use emojis where appropriate.",
	},
	{
		Key:         "enthusiastic_marketer",
		Label:       "Enthusiastic & Persuasive (Marketing)",
		Instruction: "Adopt an enthusiastic and persuasive tone. Highlight benefits and encourage action.",
	},
	{
		Key:         "technical_support",
		Label:       "Technical & Precise (Support)",
		Instruction: "Adopt a precise, technical, and methodical tone. Ask clarifying questions and provide clear steps.",
	},
	{
		Key:         "playful",
		Label:       "Playful & Creative",
		Instruction: "Adopt a playful, witty, and creative tone. You can use light humor but remain helpful.",
	},
	{
		Key:         "concise",
		Label:       "Concise & Direct (To-the-point)",
		Instruction: "Adopt a concise and direct tone. Get straight to the point without extra conversational fluff.",
	},
}

// Personas returns the persona catalog in display order.
func Personas() []Persona {
	out := make([]Persona, len(personas))
	copy(out, personas)
	return out
}

// LookupPersona returns the persona registered under key.
func LookupPersona(key string) (Persona, bool) {
	for _, p := range personas {
		if p.Key == key {
			return p, true
		}
	}
	return Persona{}, false
}

// resolvePersona returns the persona for key, falling back to the default.
func resolvePersona(key string) Persona {
	if p, ok := LookupPersona(key); ok {
		return p
	}
	p, _ := LookupPersona(DefaultPersona)
	return p
}
