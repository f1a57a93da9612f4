package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pyven-dev/pyven/pkg/cache"
	"github.com/pyven-dev/pyven/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the metadata and inventory cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheDirCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand. It purges
// whichever backend the configuration selects, so a redis-backed setup
// clears redis rather than an unused directory.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			backend, err := c.newCache(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize cache: %w", err)
			}
			defer backend.Close()

			count, err := backend.Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			printSuccess("Cleared %d cached entries", count)
			return nil
		},
	}
}

// cacheDirCommand creates the "cache dir" subcommand.
func (c *CLI) cacheDirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				dir = cache.DefaultDir()
			}
			fmt.Println(dir)
			return nil
		},
	}
}
