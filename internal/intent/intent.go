package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"docmate/internal/llmservice"
	"docmate/internal/models"
)

// Classifier labels utterances with one LLM call.
type Classifier struct {
	gen llmservice.Generator
}

func NewClassifier(gen llmservice.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify never fails: empty input is IntentEmpty without a remote call, and
// remote errors or unexpected labels become IntentUnknown.
func (c *Classifier) Classify(ctx context.Context, text string) models.Intent {
	if strings.TrimSpace(text) == "" {
		return models.IntentEmpty
	}

	out, err := c.gen.Generate(ctx, fmt.Sprintf(models.IntentPromptTemplate, text), 0)
	if err != nil {
		log.Error().Err(err).Msg("Intent classification failed")
		return models.IntentUnknown
	}

	label := normalizeLabel(out)
	intent, ok := models.ParseIntent(label)
	if !ok {
		log.Debug().Str("label", label).Msg("Unrecognised intent label")
	}
	return intent
}

// normalizeLabel lower-cases and trims the reply, dropping stray quotes and
// trailing punctuation.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(s, "\"'`.!* \n")
}
