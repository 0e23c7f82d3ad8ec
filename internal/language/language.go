package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"

	"docmate/internal/llmservice"
	"docmate/internal/models"
)

const (
	English = "en"

	translateTemperature = 0
)

// Short greetings are too brief for statistical detection.
var englishGreetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "yo": true, "hej": true, "tjena": true,
}

// Detect returns the ISO 639-1 code of text, or "en" when it cannot tell.
// Trigram detection is unreliable on short input, so any guess below
// whatlanggo's reliability threshold counts as English.
func Detect(text string) string {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" || englishGreetings[trimmed] {
		return English
	}

	info := whatlanggo.Detect(text)
	if info.Lang < 0 || !info.IsReliable() {
		log.Debug().Str("guess", info.Lang.Iso6391()).Float64("confidence", info.Confidence).Msg("Unreliable language guess, assuming English")
		return English
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return English
	}
	return code
}

// Handler detects the user's language and translates through the LLM.
type Handler struct {
	gen   llmservice.Generator
	force string
}

// NewHandler returns a Handler. A non-empty force pins every detection.
func NewHandler(gen llmservice.Generator, force string) *Handler {
	return &Handler{gen: gen, force: strings.ToLower(force)}
}

func (h *Handler) Detect(text string) string {
	if h.force != "" {
		return h.force
	}
	return Detect(text)
}

// TranslateToEnglish returns text in English along with its detected
// language. English text is returned unchanged.
func (h *Handler) TranslateToEnglish(ctx context.Context, text string) (string, string, error) {
	lang := h.Detect(text)
	if lang == English {
		return text, English, nil
	}

	out, err := h.gen.Generate(ctx, fmt.Sprintf(models.ToEnglishPromptTemplate, text), translateTemperature)
	if err != nil {
		return "", lang, fmt.Errorf("translating to English: %w", err)
	}
	english := strings.TrimSpace(out)
	log.Debug().Str("lang", lang).Str("english", english).Msg("Translated input")
	return english, lang, nil
}

// TranslateFromEnglish renders text in target, stripping lead-ins the model
// tends to add.
func (h *Handler) TranslateFromEnglish(ctx context.Context, text, target string) (string, error) {
	target = strings.ToLower(target)
	if target == English || target == "" {
		return text, nil
	}

	out, err := h.gen.Generate(ctx, fmt.Sprintf(models.FromEnglishPromptTemplate, target, text), translateTemperature)
	if err != nil {
		return "", fmt.Errorf("translating to %s: %w", target, err)
	}
	return StripLeadIns(strings.TrimSpace(out), target), nil
}

// StripLeadIns removes translation boilerplate such as "Here is a translation
// to" from the start of s. Matching is case-insensitive.
func StripLeadIns(s, target string) string {
	prefixes := []string{
		"Here is a translation to",
		"Här är en översättning till",
		"svenska:",
		"swedish:",
		"translation to " + target,
		"translated to " + target,
		target + ":",
	}
	for _, p := range prefixes {
		if hasPrefixFold(s, p) {
			s = strings.Trim(s[len(p):], ": \n")
		}
	}
	return s
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
