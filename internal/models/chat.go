package models

// Sender identifies who produced a conversation turn.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Turn is one message in a chat session. Turns live only as long as the session.
type Turn struct {
	Sender Sender
	Text   string
}

// Intent is the coarse category of a user utterance.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentGreeting
	IntentIdentity
	IntentThanks
	IntentEmpty
	IntentQuestion
)

var intentNames = map[Intent]string{
	IntentUnknown:  "unknown",
	IntentGreeting: "greeting",
	IntentIdentity: "identity",
	IntentThanks:   "thanks",
	IntentEmpty:    "empty",
	IntentQuestion: "question",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return intentNames[IntentUnknown]
}

// ParseIntent maps a label to its Intent. Labels outside the closed set map to
// IntentUnknown and ok=false.
func ParseIntent(label string) (Intent, bool) {
	for intent, name := range intentNames {
		if name == label {
			return intent, true
		}
	}
	return IntentUnknown, false
}

// Response is the full result of answering one user input.
type Response struct {
	Query    string   `json:"query"`
	Answer   string   `json:"answer"`
	Intent   string   `json:"intent"`
	Language string   `json:"language"`
	Sources  []string `json:"sources,omitempty"`
}
