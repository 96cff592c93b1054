// Package mongostore implements the remote store against a MongoDB
// database, for self-hosted platform deployments where uisync talks to
// the backing database directly instead of the HTTP API.
//
// Unlike the hosted read path, MongoDB serves document bodies verbatim:
// no encoding layer is stripped, and the wire codec handles both forms.
package mongostore

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/remote"
)

const (
	recordsCollection   = "records"
	documentsCollection = "documents"
	foldersCollection   = "folders"
)

// Store implements [remote.Store] over a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and returns a store bound to the named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" || database == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo URI and database are required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping MongoDB")
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type recordDoc struct {
	ID           string `bson:"_id"`
	Name         string `bson:"name"`
	UIDefsDocID  string `bson:"uiDefsDocId,omitempty"`
	ContentDocID string `bson:"contentDocId,omitempty"`
}

type documentDoc struct {
	ID       string `bson:"_id"`
	FolderID string `bson:"folderId,omitempty"`
	Name     string `bson:"name"`
	Body     string `bson:"body"`
}

type folderDoc struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

// QueryRecords implements [remote.Store].
func (s *Store) QueryRecords(ctx context.Context, q remote.Query) ([]remote.Record, error) {
	filter := bson.M{}
	if len(q.Names) > 0 {
		filter["name"] = bson.M{"$in": q.Names}
	}

	cur, err := s.db.Collection(recordsCollection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query records")
	}
	defer cur.Close(ctx)

	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode records")
	}

	records := make([]remote.Record, 0, len(docs))
	for _, d := range docs {
		records = append(records, remote.Record{
			ID:           d.ID,
			Name:         d.Name,
			UIDefsDocID:  d.UIDefsDocID,
			ContentDocID: d.ContentDocID,
		})
	}
	return records, nil
}

// FetchDocumentBody implements [remote.Store].
func (s *Store) FetchDocumentBody(ctx context.Context, docID string) (string, error) {
	var doc documentDoc
	err := s.db.Collection(documentsCollection).FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docID)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "fetch document %s", docID)
	}
	return doc.Body, nil
}

// FetchDocumentByName implements [remote.Store].
func (s *Store) FetchDocumentByName(ctx context.Context, folderID, name string) (*remote.Document, error) {
	var doc documentDoc
	err := s.db.Collection(documentsCollection).
		FindOne(ctx, bson.M{"folderId": folderID, "name": name}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found in folder %s", name, folderID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch document %s", name)
	}
	return &remote.Document{ID: doc.ID, Name: doc.Name, Body: doc.Body}, nil
}

// CreateDocument implements [remote.Store].
func (s *Store) CreateDocument(ctx context.Context, folderID, name, body string) (string, error) {
	doc := documentDoc{ID: uuid.NewString(), FolderID: folderID, Name: name, Body: body}
	if _, err := s.db.Collection(documentsCollection).InsertOne(ctx, doc); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "create document %s", name)
	}
	return doc.ID, nil
}

// UpdateDocument implements [remote.Store].
func (s *Store) UpdateDocument(ctx context.Context, docID, body string) error {
	res, err := s.db.Collection(documentsCollection).
		UpdateOne(ctx, bson.M{"_id": docID}, bson.M{"$set": bson.M{"body": body}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "update document %s", docID)
	}
	if res.MatchedCount == 0 {
		return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docID)
	}
	return nil
}

// EnsureFolder implements [remote.Store]. Uses an upsert keyed on the
// folder name so concurrent callers converge on one folder.
func (s *Store) EnsureFolder(ctx context.Context, name string) (string, error) {
	coll := s.db.Collection(foldersCollection)

	var existing folderDoc
	err := coll.FindOne(ctx, bson.M{"name": name}).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if err != mongo.ErrNoDocuments {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "look up folder %s", name)
	}

	id := uuid.NewString()
	res := coll.FindOneAndUpdate(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"_id": id, "name": name}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var folder folderDoc
	if err := res.Decode(&folder); err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "create folder %s", name)
	}
	return folder.ID, nil
}

var _ remote.Store = (*Store)(nil)
