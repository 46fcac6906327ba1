package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shoe_store/internal/models"
)

type fakeES struct {
	mu   sync.Mutex
	docs map[string]map[string]any
	last map[string]any
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, parts[2])
		io.WriteString(w, `{"result":"deleted"}`)
	case len(parts) == 3 && parts[1] == "_doc":
		var doc map[string]any
		json.NewDecoder(r.Body).Decode(&doc)
		f.docs[parts[2]] = doc
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"result":"created"}`)
	case len(parts) == 2 && parts[1] == "_search":
		json.NewDecoder(r.Body).Decode(&f.last)
		hits := []map[string]any{}
		for id := range f.docs {
			hits = append(hits, map[string]any{"_id": id})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{"total": map[string]any{"value": len(hits)}, "hits": hits},
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"unexpected"}`)
	}
}

func newIndex(t *testing.T) (*Index, *fakeES) {
	t.Helper()
	f := &fakeES{docs: map[string]map[string]any{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	es, err := NewClient(srv.URL, "", "")
	require.NoError(t, err)
	return NewIndex(es, "products"), f
}

func TestIndex_PutSearchDelete(t *testing.T) {
	t.Parallel()
	x, f := newIndex(t)
	ctx := context.Background()

	require.NoError(t, x.Ping(ctx))

	p := &models.Product{
		ID:       uuid.New(),
		Name:     "Trail Runner",
		Price:    decimal.RequireFromString("89.90"),
		Category: models.CategoryRunning,
		SellerID: uuid.New(),
	}
	require.NoError(t, x.Put(ctx, p))
	assert.Equal(t, "Trail Runner", f.docs[p.ID.String()]["name"])
	assert.InDelta(t, 89.9, f.docs[p.ID.String()]["price"], 0.001)

	hits, err := x.Search(ctx, "trail", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Total)
	assert.Equal(t, []uuid.UUID{p.ID}, hits.IDs)
	mm := f.last["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "trail", mm["query"])

	require.NoError(t, x.Delete(ctx, p.ID))
	require.NoError(t, x.Delete(ctx, p.ID))
}

func TestIndex_Unavailable(t *testing.T) {
	t.Parallel()
	es, err := NewClient("http://127.0.0.1:1", "", "")
	require.NoError(t, err)
	x := NewIndex(es, "products")

	_, err = x.Search(context.Background(), "x", 0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
}
