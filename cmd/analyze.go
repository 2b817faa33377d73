package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/listlens/listlens/internal/analysis"
	"github.com/listlens/listlens/internal/encoder"
	"github.com/listlens/listlens/internal/images"
	"github.com/listlens/listlens/internal/models"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		imageURL string
		noSave   bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [photo]",
		Short: "Read a list photo and save it as a shopping list",
		Example: `  listlens analyze ~/Pictures/list.jpg
  listlens analyze --url https://example.com/list.jpg --no-save --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := imageURL
			if len(args) == 1 {
				source = args[0]
			}
			if source == "" {
				return fmt.Errorf("a photo path or --url is required")
			}

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

			photo, err := images.NewFetcher(cfg.Server.MaxUploadBytes).Load(ctx, source)
			if err != nil {
				return err
			}
			payload, err := encoder.EncodeBytes(photo, cfg.Encoder.Options)
			if err != nil {
				return err
			}
			slog.Debug("Encoded photo",
				"width", payload.Width,
				"height", payload.Height,
				"quality", payload.Quality,
				"bytes", payload.DecodedBytes,
				"attempts", payload.Attempts)

			sections, err := service.AnalyzeImage(ctx, payload)
			if err != nil {
				return err
			}
			items := analysis.ItemsFromSections(sections)

			session := &models.Session{Name: "(not saved)", Items: items}
			if !noSave {
				if session, err = a.sessions.Create(ctx, items, photo); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"session_id": session.ID,
					"name":       session.Name,
					"items":      session.Items,
					"sections":   sections,
				})
			}
			printSession(out, session)
			return nil
		},
	}

	cmd.Flags().StringVar(&imageURL, "url", "", "Fetch the photo from an http(s) URL")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Print the list without saving it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a grouped list")

	return cmd
}
