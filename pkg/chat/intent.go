package chat

import "strings"

// Intent is the result of matching user input against the canned-reply
// patterns. Matching intents are answered locally without a network call.
type Intent int

const (
	IntentNone Intent = iota
	IntentIdentity
	IntentCreator
)

var creatorPhrases = []string{
	"who created you",
	"who made you",
	"your creator",
	"who built you",
}

var identityPhrases = []string{
	"your name",
	"ur name",
	"who are you",
}

// Classify matches free text against the canned intents using
// case-insensitive substring checks. Creator wins over Identity.
func Classify(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return IntentNone
	}

	for _, p := range creatorPhrases {
		if strings.Contains(t, p) {
			return IntentCreator
		}
	}

	if t == "name" {
		return IntentIdentity
	}
	for _, p := range identityPhrases {
		if strings.Contains(t, p) {
			return IntentIdentity
		}
	}

	return IntentNone
}
