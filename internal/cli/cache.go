package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/transitmap/pkg/cache"
	"github.com/matzehuels/transitmap/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the solution cache",
		Long: `Manage the solution cache.

The cache lives in the XDG cache directory unless ` + cacheURLEnv + ` names a
Redis (redis://, rediss://) or MongoDB (mongodb://, mongodb+srv://) server.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached solutions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context(), newPrinter(false))
		},
	}
}

func (c *CLI) runCacheClear(ctx context.Context, out printer) error {
	store, err := newCache(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	clearer, ok := store.(cache.Clearer)
	if !ok {
		return errors.New(errors.ErrCodeInvalidInput, "cache backend cannot be cleared")
	}
	count, err := clearer.Clear(ctx)
	if err != nil {
		return err
	}

	if count == 0 {
		out.info("Cache is empty")
		return nil
	}
	out.success("Cleared %d cached solutions", count)
	out.detail("Location: %s", cacheLocation())
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCacheLocation(cmd.OutOrStdout())
		},
	}
}

func printCacheLocation(w io.Writer) error {
	loc := cacheLocation()
	if loc == "" {
		return fmt.Errorf("get cache dir: no home directory")
	}
	_, err := fmt.Fprintln(w, loc)
	return err
}

// cacheLocation returns the cache directory, or the remote cache URL with
// its password masked.
func cacheLocation() string {
	if raw := os.Getenv(cacheURLEnv); raw != "" {
		if u, err := url.Parse(raw); err == nil {
			return u.Redacted()
		}
		return raw
	}
	dir, err := cacheDir()
	if err != nil {
		return ""
	}
	return dir
}
