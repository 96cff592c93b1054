// Package remote defines the document-store capabilities the sync core
// consumes, and provides client implementations.
//
// The core treats the remote platform as a handful of opaque operations:
// query records, fetch a document body, create/update a document, ensure a
// container folder. Everything platform-specific (transport encoding
// quirks, auth, retries, caching) stays behind the [Store] interface.
//
// Implementations:
//   - [Client]: HTTP client for the hosted platform (this package)
//   - [MemStore]: in-memory store for tests and the dev server
//   - mongostore.Store: MongoDB-backed store for self-hosted deployments
package remote

import (
	"context"

	"github.com/modelkit/uisync/pkg/errors"
)

// Record identifies one top-level unit of synchronization: a product model
// with references to its UI-definitions document and its content document.
// Records are owned by the remote store; the orchestrator only reads and
// writes them by reference.
type Record struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	UIDefsDocID  string `json:"uiDefsDocId,omitempty"`
	ContentDocID string `json:"contentDocId,omitempty"`
}

// Document is a stored document's identity and wire-form body.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body"`
}

// Query selects records. An empty Names list selects all records.
type Query struct {
	Names []string
}

// Store is the set of remote capabilities the sync core consumes.
type Store interface {
	// QueryRecords returns the product model records matching q.
	QueryRecords(ctx context.Context, q Query) ([]Record, error)

	// FetchDocumentBody returns a document's raw body in wire form.
	FetchDocumentBody(ctx context.Context, docID string) (string, error)

	// FetchDocumentByName looks a document up by name inside a folder.
	// Returns a DOCUMENT_NOT_FOUND error when absent.
	FetchDocumentByName(ctx context.Context, folderID, name string) (*Document, error)

	// CreateDocument creates a document inside a folder and returns its id.
	CreateDocument(ctx context.Context, folderID, name, body string) (string, error)

	// UpdateDocument replaces a document's body in place.
	UpdateDocument(ctx context.Context, docID, body string) error

	// EnsureFolder returns the id of the named folder, creating it if
	// absent. Idempotent.
	EnsureFolder(ctx context.Context, name string) (string, error)
}

// IsNotFound reports whether err marks a missing document, folder or record.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrCodeNotFound) ||
		errors.Is(err, errors.ErrCodeDocumentNotFound) ||
		errors.Is(err, errors.ErrCodeFolderNotFound) ||
		errors.Is(err, errors.ErrCodeRecordNotFound)
}
