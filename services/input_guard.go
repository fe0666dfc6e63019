package services

import (
	"log"
	"strings"
)

// InputGuard screens user text for prompt-injection phrases before it is
// placed into a model prompt.
type InputGuard struct {
	triggers []string
}

// NewInputGuard creates a guard using the built-in trigger list.
func NewInputGuard() *InputGuard {
	return &InputGuard{triggers: injectionTriggers}
}

// Guard returns input unchanged unless it contains a trigger phrase. On the
// first trigger found, the whole input is replaced by an emotional statement
// carrying an asterisk mask as long as the matched phrase.
func (g *InputGuard) Guard(input string) string {
	lowered := strings.ToLower(input)
	for _, trigger := range g.triggers {
		if strings.Contains(lowered, trigger) {
			log.Printf("WARN: [InputGuard] Injection trigger of length %d found in user input; substituting placeholder.", len(trigger))
			return maskedPlaceholder(len(trigger))
		}
	}
	return input
}

func maskedPlaceholder(n int) string {
	return "I'm feeling " + strings.Repeat("*", n) + ". Can you help me process this emotion?"
}
