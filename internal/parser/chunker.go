package parser

import (
	"strings"

	"docmate/internal/config"
	"docmate/internal/models"
)

// ChunkText slides a window of chunkSize characters over text, advancing by
// chunkSize-overlap each time, until the text is exhausted. Windows may split
// words or sentences. The last window can be shorter than chunkSize.
func ChunkText(text string, chunkSize, overlap int) ([]string, error) {
	spans, err := windows(len([]rune(text)), chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	chunks := make([]string, len(spans))
	for i, s := range spans {
		chunks[i] = string(runes[s[0]:s[1]])
	}
	return chunks, nil
}

// ChunkDocument chunks the document text and tags each chunk with its index,
// source, and the page and chapter in force where the chunk starts.
func ChunkDocument(doc *models.Document, chunkSize, overlap int) ([]models.Chunk, error) {
	runes := []rune(doc.Text)
	spans, err := windows(len(runes), chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	chunks := make([]models.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = models.Chunk{
			Content:    string(runes[s[0]:s[1]]),
			ChunkID:    i,
			Source:     doc.Source,
			PageNumber: doc.PageAt(s[0]),
			Chapter:    doc.ChapterAt(s[0]),
		}
	}
	return chunks, nil
}

// windows returns [start, end) rune ranges for a text of length n.
func windows(n, chunkSize, overlap int) ([][2]int, error) {
	if err := config.ValidateChunking(chunkSize, overlap); err != nil {
		return nil, err
	}
	step := chunkSize - overlap
	var spans [][2]int
	for start := 0; start < n; start += step {
		spans = append(spans, [2]int{start, min(start+chunkSize, n)})
	}
	return spans, nil
}

// JoinChunks rebuilds the text that produced chunks. Every chunk but the last
// contributes its first chunkSize-overlap characters.
func JoinChunks(chunks []string, chunkSize, overlap int) string {
	step := chunkSize - overlap
	var content strings.Builder
	for i, chunk := range chunks {
		if i == len(chunks)-1 {
			content.WriteString(chunk)
			break
		}
		runes := []rune(chunk)
		content.WriteString(string(runes[:min(step, len(runes))]))
	}
	return content.String()
}
