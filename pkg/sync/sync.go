// Package sync runs pull and push batches over product model records.
//
// Records are independent tasks: each one owns its subtree of the source
// directory and its remote document exclusively, so a fixed worker pool
// fans out over the batch and one record's failure never halts the others.
// The run's outcome is an aggregate [Summary] of per-record results.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	stdsync "sync"

	"github.com/modelkit/uisync/pkg/errors"
	"github.com/modelkit/uisync/pkg/layout"
	"github.com/modelkit/uisync/pkg/remote"
	"github.com/modelkit/uisync/pkg/uidef"
	"github.com/modelkit/uisync/pkg/wire"
)

const defaultWorkers = 8

// Status is a record task's outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// RecordResult is the outcome of one record's pull or push task.
type RecordResult struct {
	Record             string
	Status             Status
	Err                error
	Definitions        int
	Elements           int
	Skipped            int // elements skipped for missing names
	SkippedDefinitions int // definitions skipped for unrecognized shapes
}

// Summary aggregates a batch run.
type Summary struct {
	Results []RecordResult
}

// Counts returns the number of succeeded, skipped and failed records.
func (s *Summary) Counts() (succeeded, skipped, failed int) {
	for _, r := range s.Results {
		switch r.Status {
		case StatusSuccess:
			succeeded++
		case StatusSkipped:
			skipped++
		case StatusError:
			failed++
		}
	}
	return
}

// Failed returns the names of records whose task errored.
func (s *Summary) Failed() []string {
	var names []string
	for _, r := range s.Results {
		if r.Status == StatusError {
			names = append(names, r.Record)
		}
	}
	return names
}

// AllFailed reports whether the batch had records and every one errored.
func (s *Summary) AllFailed() bool {
	_, _, failed := s.Counts()
	return len(s.Results) > 0 && failed == len(s.Results)
}

// Options configures an orchestrator.
type Options struct {
	// Workers is the pool size; <= 0 uses a default.
	Workers int
	// Folder names the shared container folder documents are pushed into.
	Folder string
	// Warn receives per-record diagnostics (skip reasons, element skips).
	Warn func(format string, args ...any)
	// OnResult, when set, observes each record result as it completes.
	OnResult func(RecordResult)
}

// Orchestrator runs pull and push batches against a remote store.
type Orchestrator struct {
	store remote.Store
	root  string
	opts  Options
}

// New creates an orchestrator syncing between store and the local source
// directory root.
func New(store remote.Store, root string, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Warn == nil {
		opts.Warn = func(string, ...any) {}
	}
	return &Orchestrator{store: store, root: root, opts: opts}
}

// Pull downloads the filtered records' definitions and serializes them to
// the source directory.
func (o *Orchestrator) Pull(ctx context.Context, filter *Filter) (*Summary, error) {
	records, err := o.queryRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	return o.runBatch(ctx, records, func(ctx context.Context, rec remote.Record) RecordResult {
		return o.pullRecord(ctx, rec, filter)
	}), nil
}

// Push rebuilds the filtered records' definitions from the source directory
// and uploads them, creating documents in the container folder as needed.
// The folder is resolved once, before fan-out.
func (o *Orchestrator) Push(ctx context.Context, filter *Filter) (*Summary, error) {
	records, err := o.queryRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	folderID, err := o.store.EnsureFolder(ctx, o.opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("resolve container folder %q: %w", o.opts.Folder, err)
	}

	return o.runBatch(ctx, records, func(ctx context.Context, rec remote.Record) RecordResult {
		return o.pushRecord(ctx, rec, folderID)
	}), nil
}

func (o *Orchestrator) queryRecords(ctx context.Context, filter *Filter) ([]remote.Record, error) {
	records, err := o.store.QueryRecords(ctx, remote.Query{Names: filter.RecordNames()})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	// The store may return more than the filter asked for.
	matched := records[:0]
	for _, rec := range records {
		if filter.MatchRecord(rec.Name) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// runBatch fans the record tasks out over a fixed worker pool and collects
// their results. Cancellation marks the remaining records as errors.
func (o *Orchestrator) runBatch(ctx context.Context, records []remote.Record, task func(context.Context, remote.Record) RecordResult) *Summary {
	workers := min(o.opts.Workers, max(len(records), 1))

	jobs := make(chan remote.Record)
	results := make(chan RecordResult)

	var wg stdsync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if ctx.Err() != nil {
					results <- RecordResult{Record: rec.Name, Status: StatusError, Err: ctx.Err()}
					continue
				}
				results <- task(ctx, rec)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			jobs <- rec
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	summary := &Summary{Results: make([]RecordResult, 0, len(records))}
	for r := range results {
		if o.opts.OnResult != nil {
			o.opts.OnResult(r)
		}
		summary.Results = append(summary.Results, r)
	}
	return summary
}

// pullRecord fetches, decodes and serializes one record's definitions.
// Decode and parse failures fail only this record.
func (o *Orchestrator) pullRecord(ctx context.Context, rec remote.Record, filter *Filter) RecordResult {
	res := RecordResult{Record: rec.Name}

	if rec.UIDefsDocID == "" {
		o.opts.Warn("record %s has no UI definitions document", rec.Name)
		res.Status = StatusSkipped
		return res
	}

	body, err := o.store.FetchDocumentBody(ctx, rec.UIDefsDocID)
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}

	plain, err := wire.Decode(body)
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(plain, &raws); err != nil {
		res.Status = StatusError
		res.Err = errors.Wrap(errors.ErrCodeParseFailed, err, "parse definitions of record %s", rec.Name)
		return res
	}

	warn := func(format string, args ...any) {
		o.opts.Warn("record "+rec.Name+": "+format, args...)
	}
	ser := layout.NewSerializer(filepath.Join(o.root, rec.Name), warn)
	for _, raw := range raws {
		def, err := uidef.Parse(raw)
		if err != nil {
			// An unrecognized shape fails only its own definition; the
			// classification happens before any field parsing, so siblings
			// are unaffected.
			if errors.Is(err, errors.ErrCodeShapeUnrecognized) {
				res.SkippedDefinitions++
				warn("skipping definition: %v", err)
				continue
			}
			res.Status, res.Err = StatusError, err
			return res
		}
		if !filter.MatchDefinition(rec.Name, def.Name) {
			continue
		}
		if err := ser.Serialize(def); err != nil {
			res.Status, res.Err = StatusError, err
			return res
		}
	}
	if err := ser.Finish(); err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}

	stats := ser.Stats()
	res.Status = StatusSuccess
	res.Definitions = stats.Definitions
	res.Elements = stats.Elements
	res.Skipped = stats.SkippedElements
	return res
}

// pushRecord rebuilds one record's definitions from disk and uploads them.
// A record with no local subtree is skipped, not failed.
func (o *Orchestrator) pushRecord(ctx context.Context, rec remote.Record, folderID string) RecordResult {
	res := RecordResult{Record: rec.Name}

	recordDir := filepath.Join(o.root, rec.Name)
	if _, err := os.Stat(recordDir); os.IsNotExist(err) {
		o.opts.Warn("record %s has no local directory, skipping", rec.Name)
		res.Status = StatusSkipped
		return res
	}

	defs, err := layout.BuildRecord(recordDir)
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}

	payload, err := json.Marshal(defs)
	if err != nil {
		res.Status, res.Err = StatusError, errors.Wrap(errors.ErrCodeEncodeFailed, err, "marshal record %s", rec.Name)
		return res
	}
	body, err := wire.Encode(payload)
	if err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}

	if err := o.upload(ctx, rec, folderID, body); err != nil {
		res.Status, res.Err = StatusError, err
		return res
	}
	res.Status = StatusSuccess
	res.Definitions = len(defs)
	return res
}

// upload updates the record's existing document in place, falling back to
// name lookup in the container folder and finally creation.
func (o *Orchestrator) upload(ctx context.Context, rec remote.Record, folderID, body string) error {
	if rec.UIDefsDocID != "" {
		return o.store.UpdateDocument(ctx, rec.UIDefsDocID, body)
	}

	doc, err := o.store.FetchDocumentByName(ctx, folderID, rec.Name)
	switch {
	case err == nil:
		return o.store.UpdateDocument(ctx, doc.ID, body)
	case remote.IsNotFound(err):
		_, err := o.store.CreateDocument(ctx, folderID, rec.Name, body)
		return err
	default:
		return err
	}
}
