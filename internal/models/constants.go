package models

const (
	ChapterRegex      = `(?mi)^[ \t]*chapter[ \t]+([0-9ivxlcdm]+\b[^\n]*)$`
	ContextSeparator  = "\n\n"
	NoContextSentinel = "No relevant context available."

	UnknownChapter = "Unknown Chapter"
	UnknownPage    = "Unknown Page"

	MetaChunkID = "chunk_id"
	MetaSource  = "source"
	MetaChapter = "chapter"
	MetaPage    = "page"
)

// canned replies
const (
	GreetingReply  = "Hi there! How can I help you today?"
	IdentityReply  = "I am DocuMate, an expert assistant designed to answer questions based on the provided document context."
	ThanksReply    = "You're welcome!"
	EmptyReply     = "Please type a question."
	UnknownReply   = "I don't know."
	RefusalReply   = "I don't know. Please ask a question based on the provided context."
	EmbedFailReply = "Could not embed query, please try again."
	ErrorPrefix    = "❌ Error generating response: "

	// phrases the model is told to use when the context is insufficient
	DontKnowPhrase   = "I don't know"
	NotEnoughPhrase  = "I don't have enough information to answer that based on the current documents."
	NotAQuestionText = "Please ask a question based on the provided context."
)

var (
	IntentPromptTemplate = `
Classify this user input into one of the categories:
greeting, identity, thanks, empty, question, or unknown.

User input: "%s"

Answer with just the category name.
`

	ToEnglishPromptTemplate = "Translate this to English:\n\n%s"

	FromEnglishPromptTemplate = "Translate this sentence directly into %s. No explanation, no prefix, just the translated sentence:\n\n%s"

	AnswerPromptTemplate = `
You are an expert multilingual assistant named **DocuMate** tasked with answering user questions based solely on the provided context extracted from documents.

Context (with sources):
{{.Context}}

Instructions:
- Use **only** the information in the context to answer the question.
- If the answer is not present in the retrieved content, clearly say: "{{.NotEnough}}"
- If you use multiple sources, mention their chapters or pages as references (e.g., "see Chapter 13 and 14").
- Write your answer in well-structured paragraphs.
- Always stay in character as a helpful, technically knowledgeable assistant.
- Use a concise, clear, and approachable tone.
- If the context lacks sufficient information, respond exactly with: "{{.UnknownReply}}"
- Do not add any information or assumptions beyond the context.
  Do not use outside knowledge or invent any information.
- If the question is about your identity, respond with: "{{.IdentityReply}}"
- If the user input is empty, respond with: "{{.EmptyReply}}"
- If the user input is not a question, respond with: "{{.NotAQuestion}}"
- If the user input is not something you are instructed to answer, respond with: "{{.UnknownReply}}"
Question:
{{.Question}}

Answer:
`
)
