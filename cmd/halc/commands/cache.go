package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/hal-client/internal/constants"
	"github.com/fivetwenty-io/hal-client/pkg/cache"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear cached responses",
		Long:  "Inspect and clear the responses stored by 'halc get --cache-key'",
	}

	cmd.AddCommand(newCacheShowCommand())
	cmd.AddCommand(newCacheDeleteCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show KEY",
		Short: "Show a cached response",
		Long:  "Print the cached HAL document stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newCacheStore(cmd)
			if err != nil {
				return err
			}

			data, err := store.Get(commandContext(cmd), args[0])
			if err != nil {
				if cache.IsMiss(err) {
					return fmt.Errorf("%w: %s", ErrCacheKeyNotFound, args[0])
				}

				return fmt.Errorf("failed to read cache: %w", err)
			}

			var document any
			if err := json.Unmarshal(data, &document); err != nil {
				_, err = cmd.OutOrStdout().Write(data)

				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

			return encoder.Encode(document)
		},
	}
}

func newCacheDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   "Delete a cached response",
		Long:    "Remove the response stored under KEY. Absent keys are ignored.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newCacheStore(cmd)
			if err != nil {
				return err
			}

			if err := store.Delete(commandContext(cmd), args[0]); err != nil && !cache.IsMiss(err) {
				return fmt.Errorf("failed to delete cache key: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])

			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached responses",
		Long:  "Remove every response from the configured cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newCacheStore(cmd)
			if err != nil {
				return err
			}

			if err := store.Clear(commandContext(cmd)); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")

			return nil
		},
	}
}
