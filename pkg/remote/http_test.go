package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelkit/uisync/internal/devserver"
	"github.com/modelkit/uisync/pkg/cache"
	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/remote"
	"github.com/modelkit/uisync/pkg/wire"
)

func newTestClient(t *testing.T, cfg remote.Config) (*remote.Client, *remote.MemStore) {
	t.Helper()
	store := remote.NewMemStore()
	srv := httptest.NewServer(devserver.New(store, cfg.Token).Router())
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	client, err := remote.NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, store
}

func TestQueryRecords(t *testing.T) {
	client, store := newTestClient(t, remote.Config{})
	store.SeedRecord(remote.Record{Name: "Router", UIDefsDocID: "d1"})
	store.SeedRecord(remote.Record{Name: "Switch", UIDefsDocID: "d2"})

	ctx := context.Background()

	all, err := client.QueryRecords(ctx, remote.Query{})
	if err != nil {
		t.Fatalf("QueryRecords: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}

	some, err := client.QueryRecords(ctx, remote.Query{Names: []string{"Switch"}})
	if err != nil {
		t.Fatalf("QueryRecords(filtered): %v", err)
	}
	if len(some) != 1 || some[0].Name != "Switch" {
		t.Errorf("filtered = %+v", some)
	}
}

func TestFetchDocumentBodyStripsOneLayer(t *testing.T) {
	client, store := newTestClient(t, remote.Config{})

	// A freshly encoded body carries two base64 layers; the platform's
	// read path removes one, and the codec removes the rest.
	encoded, err := wire.Encode([]byte(`[{"children":[]}]`))
	if err != nil {
		t.Fatal(err)
	}
	id := store.SeedDocument("doc", encoded)

	body, err := client.FetchDocumentBody(context.Background(), id)
	if err != nil {
		t.Fatalf("FetchDocumentBody: %v", err)
	}
	if body == encoded {
		t.Fatal("server should have stripped one encoding layer")
	}

	decoded, err := wire.Decode(body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(decoded) != `[{"children":[]}]` {
		t.Errorf("decoded = %q", decoded)
	}
}

func TestFetchDocumentBodyCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client, store := newTestClient(t, remote.Config{Cache: c, CacheTTL: time.Hour})

	encoded, _ := wire.Encode([]byte(`{"v":1}`))
	id := store.SeedDocument("doc", encoded)

	ctx := context.Background()
	first, err := client.FetchDocumentBody(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the store does not affect the cached read.
	if err := store.UpdateDocument(ctx, id, "changed"); err != nil {
		t.Fatal(err)
	}
	second, err := client.FetchDocumentBody(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Error("second fetch should come from cache")
	}
}

func TestBearerAuth(t *testing.T) {
	store := remote.NewMemStore()
	store.SeedRecord(remote.Record{Name: "R"})
	srv := httptest.NewServer(devserver.New(store, "s3cret").Router())
	defer srv.Close()

	ctx := context.Background()

	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL, Token: "s3cret"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.QueryRecords(ctx, remote.Query{}); err != nil {
		t.Fatalf("authorized query failed: %v", err)
	}

	unauth, err := remote.NewClient(remote.Config{BaseURL: srv.URL, Token: "wrong"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := unauth.QueryRecords(ctx, remote.Query{}); !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("err = %v, want UNAUTHORIZED", err)
	}
}

func TestDocumentLifecycle(t *testing.T) {
	client, _ := newTestClient(t, remote.Config{})
	ctx := context.Background()

	folderID, err := client.EnsureFolder(ctx, "ui-definitions")
	if err != nil {
		t.Fatalf("EnsureFolder: %v", err)
	}
	again, err := client.EnsureFolder(ctx, "ui-definitions")
	if err != nil || again != folderID {
		t.Fatalf("EnsureFolder not idempotent: %q vs %q (%v)", folderID, again, err)
	}

	if _, err := client.FetchDocumentByName(ctx, folderID, "Router"); !remote.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	docID, err := client.CreateDocument(ctx, folderID, "Router", "body-v1")
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	doc, err := client.FetchDocumentByName(ctx, folderID, "Router")
	if err != nil {
		t.Fatalf("FetchDocumentByName: %v", err)
	}
	if doc.ID != docID || doc.Body != "body-v1" {
		t.Errorf("doc = %+v", doc)
	}

	if err := client.UpdateDocument(ctx, docID, "body-v2"); err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	doc, err = client.FetchDocumentByName(ctx, folderID, "Router")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Body != "body-v2" {
		t.Errorf("body = %q after update", doc.Body)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.QueryRecords(context.Background(), remote.Query{}); err != nil {
		t.Fatalf("retries should have recovered: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestTimeoutIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := remote.NewClient(remote.Config{
		BaseURL:    srv.URL,
		HTTPClient: &http.Client{Timeout: 20 * time.Millisecond},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.QueryRecords(context.Background(), remote.Query{})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Fatalf("err = %v, want TIMEOUT", err)
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.FetchDocumentBody(context.Background(), "missing")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}
