package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"docmate/internal/models"
)

// GenerateUUID creates a random unique UUID string
func GenerateUUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %v", err)
	}
	return id.String(), nil
}

// ChunkRecord converts an embedded chunk to a store record with a fresh ID.
func ChunkRecord(ce models.ChunkEmbedding) (models.Record, error) {
	id, err := GenerateUUID()
	if err != nil {
		return models.Record{}, err
	}
	page := models.UnknownPage
	if ce.PageNumber > 0 {
		page = strconv.Itoa(ce.PageNumber)
	}
	chapter := ce.Chapter
	if chapter == "" {
		chapter = models.UnknownChapter
	}
	return models.Record{
		ID:        id,
		Content:   ce.Content,
		Embedding: ce.Embedding,
		Metadata: map[string]string{
			models.MetaChunkID: strconv.Itoa(ce.ChunkID),
			models.MetaSource:  ce.Source,
			models.MetaChapter: chapter,
			models.MetaPage:    page,
		},
	}, nil
}

// PrettyPrint writes v as indented JSON.
func PrettyPrint(w io.Writer, v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Error pretty printing")
		return
	}
	fmt.Fprintln(w, string(b))
}
