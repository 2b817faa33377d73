package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/listlens/listlens/internal/categories"
	"github.com/listlens/listlens/internal/common"
	"github.com/listlens/listlens/internal/models"
	"github.com/listlens/listlens/internal/storage"
	"github.com/spf13/cobra"
)

func newListsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "lists",
		Aliases: []string{"list"},
		Short:   "Manage saved shopping lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
				return printIndex(ctx, cmd.OutOrStdout(), s)
			})
		},
	}

	var orphans bool
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List saved lists, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
				if orphans {
					return printOrphans(ctx, cmd.OutOrStdout(), s)
				}
				return printIndex(ctx, cmd.OutOrStdout(), s)
			})
		},
	}
	ls.Flags().BoolVar(&orphans, "orphans", false, "List stored lists missing from the index instead")

	cmd.AddCommand(
		ls,
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a list grouped by store section",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					session, ok, err := s.Load(ctx, args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("list %s: %w", args[0], common.ErrNotFound)
					}
					printSession(cmd.OutOrStdout(), session)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a list and its photo",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					if err := s.Delete(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "rename <id> <name>",
			Short: "Rename a list",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := strings.TrimSpace(strings.Join(args[1:], " "))
				if name == "" {
					return fmt.Errorf("name must not be empty")
				}
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					session, err := s.Update(ctx, args[0], storage.Patch{Name: &name})
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", session.ID, session.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add <id> <item>",
			Short: "Add an item to a list",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					_, item, err := s.AddItem(ctx, args[0], strings.Join(args[1:], " "), nil)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added %q to %s\n", item.Name, item.Category)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "check <id> <item-id>",
			Short: "Check an item off, or uncheck it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					session, err := s.ToggleItem(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					printSession(cmd.OutOrStdout(), session)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear <id>",
			Short: "Remove checked items from a list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd, opts, func(ctx context.Context, s *storage.SessionStore) error {
					removed, _, err := s.ClearChecked(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d checked items\n", removed)
					return nil
				})
			},
		},
	)

	return cmd
}

func withStore(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, s *storage.SessionStore) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a.sessions)
}

func printIndex(ctx context.Context, w io.Writer, s *storage.SessionStore) error {
	entries, err := s.ListIndex(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved lists")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS\tCHECKED\tPHOTO\tUPDATED")
	for _, e := range entries {
		photo := ""
		if e.HasImage {
			photo = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", e.ID, e.Name, e.ItemCount, e.CheckedCount, photo, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printOrphans(ctx context.Context, w io.Writer, s *storage.SessionStore) error {
	ids, err := s.Orphans(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "Every stored list is indexed")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	return nil
}

// printSession writes a session grouped by category in aisle order.
func printSession(w io.Writer, session *models.Session) {
	fmt.Fprintf(w, "%s", session.Name)
	if session.ID != "" {
		fmt.Fprintf(w, " (%s)", session.ID)
	}
	fmt.Fprintf(w, ": %d items, %d checked\n", len(session.Items), session.CheckedCount())

	for _, g := range groupItems(session.Items) {
		style := categories.StyleOf(g.category)
		fmt.Fprintf(w, "\n%s %s\n", style.Icon, g.category.Name())
		for _, it := range g.items {
			mark := " "
			if it.Checked {
				mark = "x"
			}
			fmt.Fprintf(w, "  [%s] %s  %s\n", mark, it.Name, it.ID)
		}
	}
}

type itemGroup struct {
	category categories.Category
	items    []models.Item
}

func groupItems(items []models.Item) []itemGroup {
	var groups []itemGroup
	index := make(map[string]int)
	for _, it := range items {
		key := it.Category.Name()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, itemGroup{category: it.Category})
		}
		groups[i].items = append(groups[i].items, it)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].category.Less(groups[j].category)
	})
	for _, g := range groups {
		sort.SliceStable(g.items, func(i, j int) bool { return g.items[i].Order < g.items[j].Order })
	}
	return groups
}
