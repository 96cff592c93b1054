package remote

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/modelkit/uisync/pkg/errors"
)

// MemStore is an in-memory [Store]. It backs the dev server and tests;
// all operations are safe for concurrent use.
type MemStore struct {
	mu        sync.RWMutex
	records   []Record
	documents map[string]*Document
	folders   map[string]string // name -> id
	docIndex  map[string]string // folderID + "/" + name -> docID
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		documents: make(map[string]*Document),
		folders:   make(map[string]string),
		docIndex:  make(map[string]string),
	}
}

// SeedRecord registers a record. Document ids may be empty or refer to
// documents seeded with SeedDocument.
func (m *MemStore) SeedRecord(r Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.records = append(m.records, r)
}

// SeedDocument registers a standalone document and returns its id.
func (m *MemStore) SeedDocument(name, body string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.documents[id] = &Document{ID: id, Name: name, Body: body}
	return id
}

// QueryRecords implements [Store].
func (m *MemStore) QueryRecords(ctx context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(q.Names) == 0 {
		out := make([]Record, len(m.records))
		copy(out, m.records)
		return out, nil
	}

	want := make(map[string]bool, len(q.Names))
	for _, n := range q.Names {
		want[n] = true
	}
	var out []Record
	for _, r := range m.records {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out, nil
}

// FetchDocumentBody implements [Store].
func (m *MemStore) FetchDocumentBody(ctx context.Context, docID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[docID]
	if !ok {
		return "", errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docID)
	}
	return doc.Body, nil
}

// FetchDocumentByName implements [Store].
func (m *MemStore) FetchDocumentByName(ctx context.Context, folderID, name string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.docIndex[folderID+"/"+name]
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found in folder %s", name, folderID)
	}
	doc := *m.documents[id]
	return &doc, nil
}

// CreateDocument implements [Store].
func (m *MemStore) CreateDocument(ctx context.Context, folderID, name, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.documents[id] = &Document{ID: id, Name: name, Body: body}
	m.docIndex[folderID+"/"+name] = id
	return id, nil
}

// UpdateDocument implements [Store].
func (m *MemStore) UpdateDocument(ctx context.Context, docID, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[docID]
	if !ok {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docID)
	}
	doc.Body = body
	return nil
}

// EnsureFolder implements [Store].
func (m *MemStore) EnsureFolder(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.folders[name]; ok {
		return id, nil
	}
	id := uuid.NewString()
	m.folders[name] = id
	return id, nil
}

var _ Store = (*MemStore)(nil)
