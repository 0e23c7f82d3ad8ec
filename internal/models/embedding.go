package models

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string
	ChunkID    int
	Source     string
	PageNumber int
	Chapter    string
}

// ChunkEmbedding pairs a chunk with the vector produced for it
type ChunkEmbedding struct {
	Chunk
	Embedding []float32
}

// Record is what the vector store persists for one chunk.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// QueryResult is one neighbour returned by the vector store. Lower distance is closer.
type QueryResult struct {
	ID       string
	Content  string
	Distance float32
	Metadata map[string]string
}

// TaskType tells the embedding model what the vector will be used for.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "retrieval_document"
	TaskRetrievalQuery    TaskType = "retrieval_query"
)
