package chromemdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docmate/internal/models"
)

func record(id string, vec []float32, page string) models.Record {
	return models.Record{
		ID:        id,
		Content:   "content " + id,
		Embedding: vec,
		Metadata: map[string]string{
			models.MetaSource: "book.txt",
			models.MetaPage:   page,
		},
	}
}

func newManager(t *testing.T) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager(t.TempDir(), false, "")
	if err != nil {
		t.Fatalf("NewVectorDBManager: %v", err)
	}
	if err := m.GetOrCreateCollection("my_texts", "embedding-001"); err != nil {
		t.Fatalf("GetOrCreateCollection: %v", err)
	}
	return m
}

func TestQueryReturnsCosineDistanceInOrder(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	err := m.Upsert(ctx, []models.Record{
		record("a", []float32{1, 0, 0}, "1"),
		record("b", []float32{0.7, 0.7, 0}, "2"),
		record("c", []float32{0, 0, 1}, "3"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := m.Query(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("order = %s,%s, want a,b", got[0].ID, got[1].ID)
	}
	if math.Abs(float64(got[0].Distance)) > 1e-5 {
		t.Errorf("identical vector distance = %v, want 0", got[0].Distance)
	}
	if d := float64(got[1].Distance); math.Abs(d-(1-1/math.Sqrt2)) > 1e-3 {
		t.Errorf("45 degree distance = %v, want about 0.293", d)
	}
	if got[0].Metadata[models.MetaPage] != "1" {
		t.Errorf("metadata not preserved: %v", got[0].Metadata)
	}
}

func TestQueryClampsTopKToCount(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	if err := m.Upsert(ctx, []models.Record{record("only", []float32{0, 1}, "1")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := m.Query(ctx, []float32{0, 1}, 5, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d results, want 1", len(got))
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	m := newManager(t)
	got, err := m.Query(context.Background(), []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	m.Upsert(ctx, []models.Record{record("x", []float32{1, 0}, "1")})
	m.Upsert(ctx, []models.Record{record("x", []float32{0, 1}, "2")})

	n, err := m.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	m, err := NewVectorDBManager(dir, false, "")
	if err != nil {
		t.Fatalf("NewVectorDBManager: %v", err)
	}
	if err := m.GetOrCreateCollection("my_texts", "embedding-001"); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, []models.Record{record("p", []float32{1, 1}, "4")}); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewVectorDBManager(dir, false, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.OpenCollection("my_texts", "embedding-001"); err != nil {
		t.Fatalf("OpenCollection: %v", err)
	}
	if n, _ := reopened.Count(ctx); n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

func TestOpenCollectionMissing(t *testing.T) {
	m, err := NewVectorDBManager(t.TempDir(), false, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.OpenCollection("absent", ""); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExportRequiresKey(t *testing.T) {
	m := newManager(t)
	if _, err := m.Export(context.Background()); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, err := NewVectorDBManager(t.TempDir(), false, "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	if err := src.GetOrCreateCollection("my_texts", "embedding-001"); err != nil {
		t.Fatal(err)
	}
	src.Upsert(ctx, []models.Record{record("e", []float32{1, 0}, "1")})

	path, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst, err := NewVectorDBManager("", false, "0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatal(err)
	}
	if err := dst.Import(ctx, path, "my_texts"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n, _ := dst.Count(ctx); n != 1 {
		t.Errorf("imported count = %d, want 1", n)
	}
}

func TestUpsertSkipsZeroEmbeddings(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	records := []models.Record{record("zero", []float32{0, 0, 0}, "1")}
	for i := 0; i < 8; i++ {
		records = append(records, record(fmt.Sprintf("far%d", i), []float32{-1, float32(i), 1}, "2"))
	}
	best := []float32{0.3, 0.9, 0.1}
	records = append(records, record("best", best, "3"))
	if err := m.Upsert(ctx, records); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n, _ := m.Count(ctx); n != 9 {
		t.Fatalf("count = %d, want 9 without the zero record", n)
	}

	for i := 0; i < 200; i++ {
		got, err := m.Query(ctx, best, 2, nil)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 2 || got[0].ID != "best" {
			t.Fatalf("query %d: got %+v, want best first", i, got)
		}
		for _, r := range got {
			if math.IsNaN(float64(r.Distance)) {
				t.Fatalf("query %d: NaN distance in %+v", i, got)
			}
		}
	}
}

func TestUpsertOnlyZeroEmbeddingsIsNoop(t *testing.T) {
	m := newManager(t)
	if err := m.Upsert(context.Background(), []models.Record{record("zero", []float32{0, 0}, "1")}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if n, _ := m.Count(context.Background()); n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestUpsertTagsEmbeddingModel(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	in := record("a", []float32{1, 0}, "1")
	if err := m.Upsert(ctx, []models.Record{in}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, ok := in.Metadata[metaEmbeddingModel]; ok {
		t.Error("caller metadata was modified")
	}
	got, err := m.Query(ctx, []float32{1, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got[0].Metadata[metaEmbeddingModel] != "embedding-001" {
		t.Errorf("stored model = %q", got[0].Metadata[metaEmbeddingModel])
	}
}

func TestQueryWarnsOnEmbeddingModelMismatch(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	dir := t.TempDir()
	ctx := context.Background()
	m, err := NewVectorDBManager(dir, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.GetOrCreateCollection("my_texts", "embedding-001"); err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, []models.Record{record("a", []float32{1, 0}, "1")}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		model    string
		wantWarn bool
	}{
		{model: "embedding-001", wantWarn: false},
		{model: "text-embedding-004", wantWarn: true},
		{model: "", wantWarn: false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			buf.Reset()
			reopened, err := NewVectorDBManager(dir, false, "")
			if err != nil {
				t.Fatal(err)
			}
			if err := reopened.OpenCollection("my_texts", tt.model); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 2; i++ {
				if _, err := reopened.Query(ctx, []float32{1, 0}, 1, nil); err != nil {
					t.Fatalf("Query: %v", err)
				}
			}
			warnings := strings.Count(buf.String(), "different embedding model")
			if tt.wantWarn && warnings != 1 {
				t.Errorf("got %d warnings, want exactly 1: %s", warnings, buf.String())
			}
			if !tt.wantWarn && warnings != 0 {
				t.Errorf("unexpected warning: %s", buf.String())
			}
		})
	}
}
