package cmd

import (
	"fmt"

	"github.com/listlens/listlens/internal/review"
	"github.com/spf13/cobra"
)

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var accept bool

	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Ask the model to double-check item categories",
		Long: `Sends the items of a saved list to the configured model and prints the
category changes it suggests. With --accept the suggestions are applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			service, err := a.analysis()
			if err != nil {
				return err
			}
			reviews := a.reconciler(service)

			status, err := reviews.Check(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status.State != review.StateSuggestionsPending || status.Batch == nil {
				fmt.Fprintln(out, "No category changes suggested")
				return nil
			}
			for _, s := range status.Batch.Suggestions {
				fmt.Fprintf(out, "  %-30s %s -> %s\n", s.ItemName, s.Current, s.Proposed)
			}

			if !accept {
				fmt.Fprintf(out, "\n%d suggestions; rerun with --accept to apply them\n", len(status.Batch.Suggestions))
				return nil
			}
			applied, session, err := reviews.Accept(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nApplied %d changes\n", applied)
			printSession(out, session)
			return nil
		},
	}

	cmd.Flags().BoolVar(&accept, "accept", false, "Apply the suggested categories")

	return cmd
}
