package rag

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"docmate/internal/intent"
	"docmate/internal/language"
	"docmate/internal/llmservice"
	"docmate/internal/metrics"
	"docmate/internal/models"
	"docmate/internal/retrieval"
)

// Retriever finds context for an English query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.QueryResult, error)
}

// Options tune a RAG pipeline.
type Options struct {
	// ForceLanguage pins language detection to one ISO 639-1 code.
	ForceLanguage string
	// Temperature is used for answer generation.
	Temperature float64
}

// RAG answers one user input at a time: classify, translate, retrieve,
// generate and translate back.
type RAG struct {
	classifier *intent.Classifier
	lang       *language.Handler
	retriever  Retriever
	answerer   *AnswerGenerator
}

func NewRAG(gen llmservice.Generator, retriever Retriever, opts Options) *RAG {
	return &RAG{
		classifier: intent.NewClassifier(gen),
		lang:       language.NewHandler(gen, opts.ForceLanguage),
		retriever:  retriever,
		answerer:   NewAnswerGenerator(gen, opts.Temperature),
	}
}

// ProcessUserInput returns the reply to text. It never fails; errors are
// rendered into the reply.
func (r *RAG) ProcessUserInput(ctx context.Context, text string) string {
	return r.Answer(ctx, text).Answer
}

// Answer is ProcessUserInput with the classification, language and sources
// that produced the reply.
func (r *RAG) Answer(ctx context.Context, text string) models.Response {
	lang := r.lang.Detect(text)
	in := r.classifier.Classify(ctx, text)
	metrics.RequestsTotal.WithLabelValues(in.String()).Inc()
	log.Debug().Str("intent", in.String()).Str("lang", lang).Msg("Classified input")

	resp := models.Response{Query: text, Intent: in.String(), Language: lang}
	switch in {
	case models.IntentEmpty:
		resp.Answer = models.EmptyReply
	case models.IntentGreeting:
		resp.Answer = r.canned(ctx, models.GreetingReply, lang)
	case models.IntentIdentity:
		resp.Answer = r.canned(ctx, models.IdentityReply, lang)
	case models.IntentThanks:
		resp.Answer = r.canned(ctx, models.ThanksReply, lang)
	case models.IntentQuestion:
		r.answerQuestion(ctx, text, &resp)
	case models.IntentUnknown:
		resp.Answer = models.UnknownReply
	default:
		resp.Answer = models.UnknownReply
	}
	return resp
}

// canned translates a fixed reply, falling back to English.
func (r *RAG) canned(ctx context.Context, reply, lang string) string {
	if lang == language.English {
		return reply
	}
	out, err := r.lang.TranslateFromEnglish(ctx, reply, lang)
	if err != nil {
		log.Warn().Err(err).Str("lang", lang).Msg("Falling back to English reply")
		return reply
	}
	return out
}

func (r *RAG) answerQuestion(ctx context.Context, text string, resp *models.Response) {
	english, lang, err := r.lang.TranslateToEnglish(ctx, text)
	resp.Language = lang
	if err != nil {
		metrics.RequestErrorsTotal.Inc()
		log.Error().Err(err).Str("lang", lang).Msg("Translating question failed")
		resp.Answer = models.ErrorPrefix + err.Error()
		return
	}

	results, err := r.retriever.Retrieve(ctx, english)
	if err != nil {
		metrics.RequestErrorsTotal.Inc()
		if errors.Is(err, retrieval.ErrQueryEmbedding) {
			log.Error().Err(err).Msg("Query embedding failed")
			resp.Answer = models.EmbedFailReply
			return
		}
		resp.Answer = models.ErrorPrefix + err.Error()
		return
	}

	answer, err := r.answerer.Generate(ctx, english, retrieval.BuildContext(results))
	if err != nil {
		metrics.RequestErrorsTotal.Inc()
		resp.Answer = models.ErrorPrefix + err.Error()
		return
	}

	if isRefusal(answer) {
		resp.Answer = models.RefusalReply
		return
	}

	translated, err := r.lang.TranslateFromEnglish(ctx, answer, lang)
	if err != nil {
		metrics.RequestErrorsTotal.Inc()
		log.Error().Err(err).Str("lang", lang).Msg("Translating answer failed")
		resp.Answer = models.ErrorPrefix + err.Error()
		return
	}
	resp.Answer = translated
	resp.Sources = retrieval.Sources(results)
}

func isRefusal(answer string) bool {
	answer = strings.ReplaceAll(answer, "’", "'")
	return strings.Contains(answer, models.DontKnowPhrase) || strings.Contains(answer, models.NotEnoughPhrase)
}
