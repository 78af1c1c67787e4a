package classify

import (
	"context"
	"regexp"
	"strings"

	"github.com/tailored-agentic-units/assistant/session"
)

// A message is small talk only when the whole text matches.
var (
	greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|hiya|howdy|greetings|yo|good (morning|afternoon|evening|day))( there| all| everyone| friend| again)?$`)
	farewellPattern = regexp.MustCompile(`(?i)^(bye|goodbye|good bye|bye bye|see (you|ya)( later| soon)?|farewell|good night|goodnight|later|take care|cya|that'?s all|thanks,? bye|thank you,? bye)( all| everyone| friend| for now| now)?$`)
)

// maxSmallTalkWords bounds how long a greeting or farewell can be before it
// is treated as a question.
const maxSmallTalkWords = 5

// KeywordClassifier applies fixed phrase rules. Empty text, text containing
// a question mark and anything unmatched are questions.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (k *KeywordClassifier) Classify(_ context.Context, text string) (Result, error) {
	return Result{Intent: k.Intent(text), Source: SourceKeyword}, nil
}

// Intent is Classify without the wrapper.
func (k *KeywordClassifier) Intent(text string) session.Intent {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(text, "?") {
		return session.IntentQuestion
	}
	if len(strings.Fields(text)) > maxSmallTalkWords {
		return session.IntentQuestion
	}

	normalized := strings.Join(strings.Fields(strings.TrimRight(text, ".!, ")), " ")
	switch {
	case farewellPattern.MatchString(normalized):
		return session.IntentFarewell
	case greetingPattern.MatchString(normalized):
		return session.IntentGreeting
	default:
		return session.IntentQuestion
	}
}
