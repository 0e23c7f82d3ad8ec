package rag

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"docmate/internal/llmservice"
	"docmate/internal/models"
)

var answerTemplate = template.Must(template.New("answer").Parse(models.AnswerPromptTemplate))

type answerPromptData struct {
	Context       string
	Question      string
	NotEnough     string
	UnknownReply  string
	IdentityReply string
	EmptyReply    string
	NotAQuestion  string
}

// AnswerGenerator asks the LLM to answer from retrieved context only.
type AnswerGenerator struct {
	gen         llmservice.Generator
	temperature float64
}

func NewAnswerGenerator(gen llmservice.Generator, temperature float64) *AnswerGenerator {
	return &AnswerGenerator{gen: gen, temperature: temperature}
}

// BuildPrompt renders the answer prompt for question and context.
func BuildPrompt(question, context string) (string, error) {
	var b strings.Builder
	err := answerTemplate.Execute(&b, answerPromptData{
		Context:       context,
		Question:      question,
		NotEnough:     models.NotEnoughPhrase,
		UnknownReply:  models.UnknownReply,
		IdentityReply: models.IdentityReply,
		EmptyReply:    models.EmptyReply,
		NotAQuestion:  models.NotAQuestionText,
	})
	if err != nil {
		return "", fmt.Errorf("rendering answer prompt: %w", err)
	}
	return b.String(), nil
}

func (a *AnswerGenerator) Generate(ctx context.Context, question, context string) (string, error) {
	prompt, err := BuildPrompt(question, context)
	if err != nil {
		return "", err
	}
	out, err := a.gen.Generate(ctx, prompt, a.temperature)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
