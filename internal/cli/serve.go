package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/modelkit/uisync/internal/devserver"
	"github.com/modelkit/uisync/pkg/layout"
	"github.com/modelkit/uisync/pkg/remote"
	"github.com/modelkit/uisync/pkg/wire"
)

// newServeCmd creates the serve command: run a local in-memory emulation of
// the document platform, optionally seeded from the source directory.
func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr  string
		token string
		seed  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local platform emulator",
		Long: `Serve starts an in-memory emulation of the document platform's HTTP API
for offline development: records, documents and folders live in memory, and
document bodies are served with one encoding layer stripped, like the
hosted platform. With --seed, every record subtree found in the given
source directory is encoded and loaded on startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			store := remote.NewMemStore()
			if seed != "" {
				n, err := seedFromDir(store, seed)
				if err != nil {
					return err
				}
				logger.Infof("Seeded %d records from %s", n, seed)
			}

			srv := &http.Server{
				Addr:    addr,
				Handler: devserver.New(store, token).Router(),
			}

			printInfo("Serving on http://%s", addr)
			printKeyValue("Address", addr)
			if token != "" {
				printKeyValue("Auth", "bearer token required")
			}
			if seed != "" {
				printKeyValue("Seed", seed)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&token, "token", "", "require this bearer token (empty disables auth)")
	cmd.Flags().StringVar(&seed, "seed", "", "seed records from this source directory")
	return cmd
}

// seedFromDir loads one record per subdirectory of dir: the subtree is
// rebuilt, wire-encoded and stored as that record's definitions document.
func seedFromDir(store *remote.MemStore, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		defs, err := layout.BuildRecord(filepath.Join(dir, name))
		if err != nil {
			return count, err
		}
		payload, err := json.Marshal(defs)
		if err != nil {
			return count, err
		}
		body, err := wire.Encode(payload)
		if err != nil {
			return count, err
		}
		docID := store.SeedDocument(name, body)
		store.SeedRecord(remote.Record{Name: name, UIDefsDocID: docID})
		count++
	}
	return count, nil
}
