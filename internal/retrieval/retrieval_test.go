package retrieval

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"docmate/internal/models"
)

func result(distance float32, chapter, page, content string) models.QueryResult {
	return models.QueryResult{
		Content:  content,
		Distance: distance,
		Metadata: map[string]string{
			models.MetaSource:  "chattbot.pdf",
			models.MetaChapter: chapter,
			models.MetaPage:    page,
		},
	}
}

func TestFilterByDistance(t *testing.T) {
	tests := []struct {
		name      string
		distances []float32
		threshold float32
		want      []float32
	}{
		{name: "threshold is exclusive", distances: []float32{0.1, 0.59, 0.6, 0.9}, threshold: 0.6, want: []float32{0.1, 0.59}},
		{name: "all pass", distances: []float32{0.2, 0.3}, threshold: 0.6, want: []float32{0.2, 0.3}},
		{name: "none pass", distances: []float32{0.7, 1.2}, threshold: 0.6, want: []float32{}},
		{name: "empty input", distances: nil, threshold: 0.6, want: []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]models.QueryResult, len(tt.distances))
			for i, d := range tt.distances {
				in[i] = models.QueryResult{Distance: d}
			}
			got := FilterByDistance(in, tt.threshold)
			gotDistances := make([]float32, len(got))
			for i, r := range got {
				gotDistances[i] = r.Distance
			}
			if !reflect.DeepEqual(gotDistances, tt.want) {
				t.Errorf("got %v, want %v", gotDistances, tt.want)
			}
		})
	}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext([]models.QueryResult{
		result(0.1, "1", "3", "First chunk."),
		result(0.2, "", "", "Second chunk."),
	})
	want := "[Chapter: 1, Page: 3]\nFirst chunk.\n\n[Chapter: Unknown Chapter, Page: Unknown Page]\nSecond chunk."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := BuildContext(nil); got != models.NoContextSentinel {
		t.Errorf("got %q, want sentinel", got)
	}
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vec, f.err
}

type fakeStore struct {
	results []models.QueryResult
	topK    int
}

func (s *fakeStore) Upsert(context.Context, []models.Record) error { return nil }
func (s *fakeStore) Count(context.Context) (int, error)            { return len(s.results), nil }
func (s *fakeStore) Close() error                                  { return nil }

func (s *fakeStore) Query(_ context.Context, _ []float32, topK int, _ map[string]string) ([]models.QueryResult, error) {
	s.topK = topK
	return s.results, nil
}

func TestRetrieverAppliesTopKAndThreshold(t *testing.T) {
	store := &fakeStore{results: []models.QueryResult{
		result(0.3, "1", "1", "close"),
		result(0.8, "2", "9", "far"),
	}}
	r := NewRetriever(fakeEmbedder{vec: []float32{1, 0}}, store, 5, 0.6)

	got, err := r.Retrieve(context.Background(), "what happens in chapter 1")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if store.topK != 5 {
		t.Errorf("topK = %d, want 5", store.topK)
	}
	if len(got) != 1 || got[0].Content != "close" {
		t.Errorf("got %+v, want only the close chunk", got)
	}
}

func TestRetrieverReturnsEmbeddingError(t *testing.T) {
	r := NewRetriever(fakeEmbedder{err: models.ErrRemoteCall}, &fakeStore{}, 5, 0.6)
	_, err := r.Retrieve(context.Background(), "q")
	if !errors.Is(err, ErrQueryEmbedding) || !errors.Is(err, models.ErrRemoteCall) {
		t.Errorf("expected ErrQueryEmbedding wrapping ErrRemoteCall, got %v", err)
	}
}

func TestSources(t *testing.T) {
	got := Sources([]models.QueryResult{
		result(0.1, "1", "3", "a"),
		result(0.2, "1", "3", "b"),
		result(0.3, "2", models.UnknownPage, "c"),
	})
	want := []string{"chattbot.pdf p.3", "chattbot.pdf"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %v, want %v", got, want)
	}
}
