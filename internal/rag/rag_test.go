package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"docmate/internal/models"
	"docmate/internal/retrieval"
)

// routingGenerator answers each prompt kind with a scripted reply.
type routingGenerator struct {
	intent    string
	english   string
	answer    string
	answerErr error
	toErr     error
	backErr   error
	calls     map[string]int
	answerIn  string
	answerT   float64
}

func (g *routingGenerator) Generate(_ context.Context, prompt string, temperature float64) (string, error) {
	if g.calls == nil {
		g.calls = map[string]int{}
	}
	switch {
	case strings.Contains(prompt, "Classify this user input"):
		g.calls["intent"]++
		return g.intent, nil
	case strings.HasPrefix(prompt, "Translate this to English"):
		g.calls["to_english"]++
		return g.english, g.toErr
	case strings.HasPrefix(prompt, "Translate this sentence directly into"):
		g.calls["from_english"]++
		if g.backErr != nil {
			return "", g.backErr
		}
		text := prompt[strings.LastIndex(prompt, "\n")+1:]
		return "[sv] " + text, nil
	default:
		g.calls["answer"]++
		g.answerIn = prompt
		g.answerT = temperature
		return g.answer, g.answerErr
	}
}

type stubRetriever struct {
	results []models.QueryResult
	err     error
	queries []string
}

func (s *stubRetriever) Retrieve(_ context.Context, query string) ([]models.QueryResult, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func chunk(content, page string) models.QueryResult {
	return models.QueryResult{
		Content:  content,
		Distance: 0.2,
		Metadata: map[string]string{
			models.MetaSource:  "chattbot.pdf",
			models.MetaChapter: "1",
			models.MetaPage:    page,
		},
	}
}

func TestGreetingForcedEnglishIsVerbatim(t *testing.T) {
	gen := &routingGenerator{intent: "greeting"}
	r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "en"})

	if got := r.ProcessUserInput(context.Background(), "hello"); got != models.GreetingReply {
		t.Errorf("got %q, want %q", got, models.GreetingReply)
	}
	if gen.calls["from_english"] != 0 {
		t.Error("English greeting must not be translated")
	}
}

func TestEmptyInputNeverClassifies(t *testing.T) {
	gen := &routingGenerator{intent: "question"}
	r := NewRAG(gen, &stubRetriever{}, Options{})

	if got := r.ProcessUserInput(context.Background(), "   "); got != models.EmptyReply {
		t.Errorf("got %q, want %q", got, models.EmptyReply)
	}
	if len(gen.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", gen.calls)
	}
}

func TestCannedRepliesTranslated(t *testing.T) {
	tests := []struct {
		intent string
		want   string
	}{
		{intent: "greeting", want: "[sv] " + models.GreetingReply},
		{intent: "identity", want: "[sv] " + models.IdentityReply},
		{intent: "thanks", want: "[sv] " + models.ThanksReply},
	}
	for _, tt := range tests {
		t.Run(tt.intent, func(t *testing.T) {
			gen := &routingGenerator{intent: tt.intent}
			r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "sv"})
			if got := r.ProcessUserInput(context.Background(), "tack så mycket"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCannedReplyFallsBackToEnglish(t *testing.T) {
	gen := &routingGenerator{intent: "thanks", backErr: errors.New("quota")}
	r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "sv"})
	if got := r.ProcessUserInput(context.Background(), "tack"); got != models.ThanksReply {
		t.Errorf("got %q, want %q", got, models.ThanksReply)
	}
}

func TestUnknownIntent(t *testing.T) {
	gen := &routingGenerator{intent: "weather"}
	r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "en"})
	resp := r.Answer(context.Background(), "is it raining")
	if resp.Answer != models.UnknownReply || resp.Intent != "unknown" {
		t.Errorf("got %+v", resp)
	}
}

func TestQuestionAnsweredFromContext(t *testing.T) {
	gen := &routingGenerator{intent: "question", answer: "The harbour opens in Chapter 1 (see page 3)."}
	ret := &stubRetriever{results: []models.QueryResult{chunk("  The harbour opened at dawn.  ", "3")}}
	r := NewRAG(gen, ret, Options{ForceLanguage: "en", Temperature: 0.2})

	resp := r.Answer(context.Background(), "When does the harbour open?")
	if resp.Answer != "The harbour opens in Chapter 1 (see page 3)." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Intent != "question" || resp.Language != "en" {
		t.Errorf("intent/lang = %s/%s", resp.Intent, resp.Language)
	}
	if len(resp.Sources) != 1 || resp.Sources[0] != "chattbot.pdf p.3" {
		t.Errorf("sources = %v", resp.Sources)
	}
	if !strings.Contains(gen.answerIn, "[Chapter: 1, Page: 3]\nThe harbour opened at dawn.") {
		t.Errorf("prompt missing context block:\n%s", gen.answerIn)
	}
	if gen.answerT != 0.2 {
		t.Errorf("answer temperature = %v, want 0.2", gen.answerT)
	}
	if gen.calls["to_english"] != 0 || gen.calls["from_english"] != 0 {
		t.Errorf("English question must not be translated: %v", gen.calls)
	}
}

func TestShortEnglishInputIsNotTranslated(t *testing.T) {
	tests := []struct {
		in     string
		intent string
		want   string
	}{
		{in: "What is gradient descent?", intent: "question", want: "Gradient descent minimises a loss."},
		{in: "thanks", intent: "thanks", want: models.ThanksReply},
		{in: "Who are you?", intent: "identity", want: models.IdentityReply},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			gen := &routingGenerator{intent: tt.intent, answer: "Gradient descent minimises a loss."}
			ret := &stubRetriever{results: []models.QueryResult{chunk("Gradient descent minimises a loss.", "7")}}
			resp := NewRAG(gen, ret, Options{}).Answer(context.Background(), tt.in)
			if resp.Answer != tt.want || resp.Language != "en" {
				t.Errorf("got %+v, want answer %q in en", resp, tt.want)
			}
			if gen.calls["to_english"] != 0 || gen.calls["from_english"] != 0 {
				t.Errorf("English input was translated: %v", gen.calls)
			}
		})
	}
}

func TestQuestionInSwedishIsTranslatedBothWays(t *testing.T) {
	gen := &routingGenerator{intent: "question", english: "When does the harbour open?", answer: "At dawn."}
	ret := &stubRetriever{results: []models.QueryResult{chunk("The harbour opened at dawn.", "3")}}
	r := NewRAG(gen, ret, Options{ForceLanguage: "sv"})

	resp := r.Answer(context.Background(), "När öppnar hamnen?")
	if len(ret.queries) != 1 || ret.queries[0] != "When does the harbour open?" {
		t.Errorf("retrieval queries = %q", ret.queries)
	}
	if resp.Answer != "[sv] At dawn." || resp.Language != "sv" {
		t.Errorf("got %+v", resp)
	}
}

func TestQuestionRefusalIsNormalized(t *testing.T) {
	for _, answer := range []string{
		"I don't know.",
		"Sorry, I don’t know the answer.",
		models.NotEnoughPhrase,
	} {
		gen := &routingGenerator{intent: "question", english: "x", answer: answer}
		r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "sv"})
		resp := r.Answer(context.Background(), "Vad?")
		if resp.Answer != models.RefusalReply {
			t.Errorf("answer %q: got %q, want refusal", answer, resp.Answer)
		}
		if len(resp.Sources) != 0 {
			t.Errorf("refusal should carry no sources, got %v", resp.Sources)
		}
		if gen.calls["from_english"] != 0 {
			t.Error("refusal must not be translated")
		}
	}
}

func TestNoContextUsesSentinel(t *testing.T) {
	gen := &routingGenerator{intent: "question", answer: "I don't know."}
	r := NewRAG(gen, &stubRetriever{}, Options{ForceLanguage: "en"})
	r.ProcessUserInput(context.Background(), "What is the capital of Mars?")
	if !strings.Contains(gen.answerIn, models.NoContextSentinel) {
		t.Errorf("prompt should carry the no-context sentinel:\n%s", gen.answerIn)
	}
}

func TestQuestionErrors(t *testing.T) {
	tests := []struct {
		name      string
		lang      string
		retErr    error
		answerErr error
		toErr     error
		backErr   error
		want      string
	}{
		{
			name:   "embedding failure",
			lang:   "en",
			retErr: fmt.Errorf("%w: %w", retrieval.ErrQueryEmbedding, models.ErrRemoteCall),
			want:   models.EmbedFailReply,
		},
		{
			name:   "store failure",
			lang:   "en",
			retErr: errors.New("querying store: connection reset"),
			want:   models.ErrorPrefix + "querying store: connection reset",
		},
		{
			name:      "generation failure",
			lang:      "en",
			answerErr: errors.New("remote call failed: 429"),
			want:      models.ErrorPrefix + "remote call failed: 429",
		},
		{
			name:  "translation to English fails",
			lang:  "sv",
			toErr: errors.New("quota"),
			want:  models.ErrorPrefix + "translating to English: quota",
		},
		{
			name:    "translation back fails",
			lang:    "sv",
			backErr: errors.New("quota"),
			want:    models.ErrorPrefix + "translating to sv: quota",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &routingGenerator{
				intent:    "question",
				english:   "What happens next?",
				answer:    "The ship leaves.",
				answerErr: tt.answerErr,
				toErr:     tt.toErr,
				backErr:   tt.backErr,
			}
			ret := &stubRetriever{err: tt.retErr, results: []models.QueryResult{chunk("The ship leaves.", "4")}}
			r := NewRAG(gen, ret, Options{ForceLanguage: tt.lang})
			resp := r.Answer(context.Background(), "Vad händer sedan?")
			if resp.Answer != tt.want {
				t.Errorf("got %q, want %q", resp.Answer, tt.want)
			}
			if len(resp.Sources) != 0 {
				t.Errorf("failed answer should carry no sources, got %v", resp.Sources)
			}
		})
	}
}

func TestBuildPromptIncludesFixedSentences(t *testing.T) {
	p, err := BuildPrompt("Who is the narrator?", "[Chapter: 2, Page: 5]\nText.")
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"Who is the narrator?",
		"[Chapter: 2, Page: 5]",
		models.NotEnoughPhrase,
		models.IdentityReply,
		models.EmptyReply,
		`respond exactly with: "I don't know."`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
