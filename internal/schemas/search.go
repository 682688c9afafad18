package schemas

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
)

// embeddingDims is the hashing-trick vector width. internal/llm.Client
// deliberately carries no Embed capability (§ design note in
// internal/llm/client.go — FormPilot makes one chat completion per node
// per turn, nothing else), so schema search embeds locally rather than
// spending a model call on it, supplying chromem-go's collection with
// manually-computed embeddings directly.
const embeddingDims = 256

const searchCollection = "schemas"

// Index is an optional semantic search layer over a Store's listing,
// backed by an in-memory chromem-go collection. Nil-safe: a Store without
// an Index falls back to substring filtering.
type Index struct {
	db *chromem.DB

	mu      sync.Mutex
	indexed bool
}

// NewIndex builds an empty, in-memory chromem-go-backed index.
func NewIndex() *Index {
	return &Index{db: chromem.NewDB()}
}

// ensureIndexed lazily embeds and upserts every entry in entries the first
// time Search is called, and re-embeds nothing after that — the schemas
// directory is read-only for the life of the process.
func (idx *Index) ensureIndexed(entries []Entry, s *Store) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.indexed {
		return nil
	}

	col, err := idx.db.GetOrCreateCollection(searchCollection, nil, nil)
	if err != nil {
		return fmt.Errorf("schemas: create search collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(entries))
	for _, e := range entries {
		content, err := s.Get(e.Filename)
		if err != nil {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        e.Filename,
			Metadata:  map[string]string{"title": e.Title},
			Embedding: embed(e.Title + "\n" + content),
			Content:   e.Title,
		})
	}
	if len(docs) == 0 {
		idx.indexed = true
		return nil
	}
	if err := col.AddDocuments(context.Background(), docs, 1); err != nil {
		return fmt.Errorf("schemas: index documents: %w", err)
	}
	idx.indexed = true
	return nil
}

// Search ranks entries by cosine similarity of their embedded title+body
// against query, returning up to limit filenames in descending score
// order. Building the index lazily on first use keeps a cold server from
// paying the embedding cost before anyone ever queries.
func (idx *Index) Search(s *Store, query string, limit int) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}
	if err := idx.ensureIndexed(entries, s); err != nil {
		return nil, err
	}

	col := idx.db.GetCollection(searchCollection, nil)
	if col == nil {
		return nil, nil
	}

	if limit <= 0 {
		limit = len(entries)
	}
	if limit > col.Count() {
		limit = col.Count()
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(context.Background(), embed(query), limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("schemas: query: %w", err)
	}

	byFilename := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byFilename[e.Filename] = e
	}

	out := make([]Entry, 0, len(results))
	for _, r := range results {
		if e, ok := byFilename[r.ID]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// embed turns text into a unit-length, fixed-width bag-of-tokens vector
// via the hashing trick: each lowercased token adds weight to
// hash(token) % embeddingDims, and the result is L2-normalized so cosine
// similarity reduces to a dot product. Deterministic, no network call,
// good enough to rank a few dozen bundled example schemas against a short
// query.
func embed(text string) []float32 {
	vec := make([]float32, embeddingDims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
