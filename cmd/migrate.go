package cmd

import (
	"context"
	"fmt"

	"github.com/listlens/listlens/internal/storage"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Import the single list kept by older builds",
		Long: `Older builds kept exactly one list and its photo. This converts that record
into a regular saved list and clears the old slots. "listlens serve" does the
same on startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
				session, err := s.MigrateLegacy(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if session == nil {
					fmt.Fprintln(out, "Nothing to migrate")
					return nil
				}
				fmt.Fprintf(out, "Migrated legacy list into %q (%s) with %d items\n", session.Name, session.ID, len(session.Items))
				return nil
			})
		},
	}
}
