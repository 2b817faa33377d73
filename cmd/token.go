package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the upload API",
		Long: `Signs a token with the configured JWT secret (gate.jwt_secret or
LISTLENS_JWT_SECRET). Uploads made with it count against the subject's daily quota.`,
		Example: `  listlens token --subject kitchen-tablet --ttl 720h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			g := a.gate()
			token, err := g.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)

			if left, err := g.Remaining(cmd.Context(), subject); err == nil && left >= 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s has %d analyses left today\n", subject, left)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Who the token is for")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "How long the token is valid")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
