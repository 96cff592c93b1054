package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/modelkit/uisync/pkg/cache"
)

// newCacheCmd creates the cache management command.
func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the remote response cache",
	}

	cmd.AddCommand(newCacheClearCmd(configPath))
	cmd.AddCommand(newCachePathCmd(configPath))
	return cmd
}

// cacheDir resolves the configured file-cache directory.
func cacheDir(configPath *string) (string, error) {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

func newCacheClearCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached remote responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir(configPath)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if !info.IsDir() {
					if err := os.Remove(path); err == nil {
						count++
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			// Clean up the now-empty shard directories.
			_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil || path == dir {
					return nil
				}
				if info.IsDir() {
					os.Remove(path)
				}
				return nil
			})

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

func newCachePathCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir(configPath)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
