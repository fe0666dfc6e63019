package services

import "strings"

// Canned replies used when the model output cannot be trusted.
const (
	fallbackMisunderstood = "It sounds really painful to feel misunderstood, especially by people whose opinion matters to you. " +
		"Your perspective is valid, even when others don't see it right away. " +
		"It can help to write down the one or two points you most want them to understand before you talk again. " +
		"Try starting with how you feel rather than what they did, for example \"I feel unheard when...\". " +
		"Being misunderstood says more about the conversation than about your worth."

	fallbackAnxiety = "It's understandable to feel anxious, and you don't have to make the feeling disappear right now. " +
		"Try the 5-4-3-2-1 grounding technique: notice five things you can see, four you can touch, three you can hear, two you can smell and one you can taste. " +
		"Then take a few slow breaths, breathing in for four counts and out for six. " +
		"Anxiety often makes the worst outcome feel certain, but it is only one possibility. " +
		"Focus on the next small step you can take, not the whole situation at once."

	fallbackSadness = "I'm sorry you're carrying so much sadness right now. " +
		"What you're feeling is real, and it's okay to let yourself feel it instead of pushing it away. " +
		"Be as gentle with yourself as you would be with a close friend going through the same thing. " +
		"Reaching out to someone you trust, even with a short message, can make the weight a little lighter. " +
		"If this low mood has lasted a long time, talking with a mental health professional can really help."

	fallbackAnger = "It makes sense that you're feeling angry or frustrated; those feelings often point to something that matters to you. " +
		"Before reacting, give yourself a short pause, step away for a few minutes and let your breathing slow down. " +
		"Once the intensity drops, try naming exactly what felt unfair or blocked. " +
		"Writing it down or moving your body can help release some of the tension. " +
		"Your anger is valid, and you get to choose how you respond to it."

	fallbackGeneric = "Thank you for sharing what's on your mind; it takes courage to put difficult thoughts into words. " +
		"Your feelings are valid, and it's okay that this is hard right now. " +
		"Try to notice the thought without treating it as a fact, and ask yourself what you would tell a friend who had it. " +
		"Taking a few slow, deep breaths can help you feel a little more grounded in the present moment. " +
		"Be patient with yourself and focus on one small, kind thing you can do for yourself today."
)

// FallbackGenerator chooses a pre-vetted reply by keywords in the user's text.
type FallbackGenerator struct{}

// NewFallbackGenerator creates a FallbackGenerator.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{}
}

// Fallback returns the canned reply for userInput.
func (f *FallbackGenerator) Fallback(userInput string) string {
	input := strings.ToLower(userInput)
	switch {
	case strings.Contains(input, "misunderstood"):
		return fallbackMisunderstood
	case strings.Contains(input, "anxious"), strings.Contains(input, "anxiety"):
		return fallbackAnxiety
	case strings.Contains(input, "sad"), strings.Contains(input, "depress"):
		return fallbackSadness
	case strings.Contains(input, "angry"), strings.Contains(input, "frustrat"):
		return fallbackAnger
	default:
		return fallbackGeneric
	}
}
