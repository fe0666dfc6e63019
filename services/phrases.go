package services

// Phrase tables used by the input guard and the response pipeline.
// All matching is case-insensitive substring matching.

// injectionTriggers are prompt-injection phrases looked for in user input,
// in priority order.
var injectionTriggers = []string{
	"ignore previous instructions",
	"ignore all previous instructions",
	"ignore the above",
	"disregard previous",
	"disregard all previous",
	"forget your instructions",
	"forget previous instructions",
	"new instructions",
	"system prompt",
	"pretend to be",
	"pretend you are",
	"roleplay as",
	"act as",
	"you are a",
	"you are now",
	"developer mode",
	"jailbreak",
	"override",
}

// therapeuticOnsets are the openings of an on-policy reply. When the model
// writes junk before one of them, everything before it is dropped.
var therapeuticOnsets = []string{
	"I'm sorry to hear",
	"I am sorry to hear",
	"I'm sorry you're",
	"It sounds like",
	"Your feelings are valid",
	"It's completely understandable",
	"It's understandable",
	"It's okay to feel",
	"That sounds",
	"I hear you",
	"It makes sense",
	"Thank you for sharing",
	"You're not alone",
}

// firstPersonIndicators mark a reply in which the model narrates its own life
// instead of talking to the user.
var firstPersonIndicators = []string{
	"in my family",
	"my family",
	"my relationship is",
	"my relationship with",
	"my partner",
	"my husband",
	"my wife",
	"my boyfriend",
	"my girlfriend",
	"my parents",
	"my mother",
	"my father",
	"my mom",
	"my dad",
	"my boss",
	"my job",
	"i feel like",
	"when i was",
	"i remember when",
	"i grew up",
	"growing up, i",
	"as a child, i",
	"i've been feeling",
	"i have been feeling",
	"i struggle with",
	"i used to",
}

// instructionLeaks are fragments of the system instructions or of the model's
// own meta commentary. They are cut out wherever they appear.
var instructionLeaks = []string{
	"You are a professional therapist",
	"You are a compassionate therapist",
	"You are a supportive therapist",
	"You are a therapist",
	"As a professional therapist",
	"As your therapist",
	"As a therapist",
	"Here's my response",
	"Here is my response",
	"Here's a response",
	"Here is a response",
	"Here's a supportive response",
	"Based on what you've shared",
	"Based on what you have shared",
	"Respond to the following",
	"Respond with empathy",
	"Respond directly to the user",
	"Address the user directly",
	"Validate their feelings",
	"Validate the user's feelings",
	"Provide concrete coping suggestions",
	"Provide practical coping strategies",
	"Do not speak in first person",
	"Never speak in first person",
	"Do not share personal experiences",
	"Speak directly to the user",
	"Keep your response",
	"Keep it concise",
	"The user says",
	"The user said",
	"The user wrote",
	"The user is feeling",
	"User's thought:",
	"User thought:",
	"Negative thought:",
	"Therapeutic response:",
	"System instructions:",
	"Instructions:",
	"[INST]",
	"[/INST]",
	"<<SYS>>",
	"<</SYS>>",
	"<start_of_turn>",
	"<end_of_turn>",
	"<s>",
	"</s>",
}

// instructionFragments is the second sweep over leaked instruction text,
// run after markdown is gone.
var instructionFragments = []string{
	"in a warm and supportive tone",
	"in a warm, supportive tone",
	"in a compassionate tone",
	"with empathy and warmth",
	"using second person",
	"in second person",
	"without using first person",
	"write a short response",
	"write a response",
	"generate a response",
	"your response should",
	"the response should",
	"make sure to",
	"remember to validate",
	"include coping strategies",
	"include a coping strategy",
	"(2-3 sentences)",
	"(3-4 sentences)",
	"(4-6 sentences)",
	"2-3 sentences",
	"3-4 sentences",
	"4-6 sentences",
	"in 100 words",
	"under 150 words",
	"do not mention",
	"don't mention",
	"avoid mentioning",
}

// fillerPhrases condemn the whole sentence they appear in.
var fillerPhrases = []string{
	"I hope this helps",
	"I hope that helps",
	"Hope this helps",
	"feel free to reach out",
	"feel free to ask",
	"let me know if",
	"as an AI",
	"as a language model",
	"I'm an AI",
	"I am an AI",
	"I'm just an AI",
	"this response",
	"word count",
	"I'm not a licensed",
}

// metaLinePrefixes drop a whole line when it starts with one of them
// (compared lower-cased after trimming).
var metaLinePrefixes = []string{
	"i will",
	"i'll respond",
	"i would respond",
	"i'd respond",
	"here's my",
	"here is my",
	"here's a",
	"here is a",
	"for someone who",
	"this response",
	"the response",
	"my response",
	"response:",
	"note:",
	"(note",
	"word count",
	"the user",
	"user:",
	"sure, here",
	"sure! here",
	"okay, here",
	"ok, here",
	"below is",
	"as requested",
}

// conversationalOpeners are prepended when a reply starts abruptly.
var conversationalOpeners = []string{
	"I hear you.",
	"Thank you for sharing this with me.",
	"That sounds really difficult.",
	"It makes sense that you're feeling this way.",
	"I'm really glad you reached out.",
}

// openerMarkers count as a conversational start when the reply begins with them.
var openerMarkers = []string{
	"i hear",
	"thank you",
	"that sounds",
	"it sounds",
	"it makes sense",
	"i'm sorry",
	"i am sorry",
	"i'm really glad",
	"your feelings",
	"it's understandable",
	"it's completely",
	"it's okay",
	"you're not alone",
	"it can be",
}

// openerAnywhereMarkers count as a conversational start wherever they appear.
var openerAnywhereMarkers = []string{
	"i hear you",
	"thank you for sharing",
}

// safeDefaultReply replaces a reply the pipeline emptied out.
const safeDefaultReply = "I hear you. Your feelings matter, and it's okay to take this one step at a time."
