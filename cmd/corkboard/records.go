package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/corkboard/internal/client"
	"github.com/kalambet/corkboard/internal/config"
	"github.com/kalambet/corkboard/internal/listedit"
	"github.com/kalambet/corkboard/internal/model"
	"github.com/kalambet/corkboard/internal/tui"
)

// maxParallelDeletes bounds concurrent DELETE requests from "rm".
const maxParallelDeletes = 4

// recordKind binds one record type to its REST resource, editor kind and view.
type recordKind[R any] struct {
	resource func(*client.Client) *client.Resource[R]
	kind     listedit.Kind[R]
	view     tui.View[R]
}

var labels = recordKind[model.Label]{resource: client.Labels, kind: listedit.Labels, view: tui.LabelView}

var posts = recordKind[model.Post]{resource: client.Posts, kind: listedit.Posts, view: tui.PostView}

var labelsCmd = labels.command("labels", "label", "Manage labels")

var postsCmd = posts.command("posts", "post", "Manage posts")

func (k recordKind[R]) command(plural, singular, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   plural,
		Short: short,
	}
	cmd.AddCommand(k.listCmd(plural))
	cmd.AddCommand(k.addCmd(singular))
	cmd.AddCommand(k.setCmd(singular))
	cmd.AddCommand(k.rmCmd(singular))
	cmd.AddCommand(k.uiCmd(plural))
	return cmd
}

func (k recordKind[R]) listCmd(plural string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List " + plural,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			items, err := k.resource(c).List(cmd.Context())
			if err != nil {
				return explain(err)
			}
			if len(items) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s found.\n", plural)
				return nil
			}
			for _, r := range items {
				printRecord(cmd.OutOrStdout(), k.kind.ID(r), k.view.Line(r))
			}
			return nil
		},
	}
}

func (k recordKind[R]) addCmd(singular string) *cobra.Command {
	names := make([]string, len(k.view.Fields))
	for i, f := range k.view.Fields {
		names[i] = "<" + f.Name + ">"
	}
	args := cobra.ExactArgs(len(names))
	if len(names) == 1 {
		args = cobra.MinimumNArgs(1)
	}

	return &cobra.Command{
		Use:   "add " + strings.Join(names, " "),
		Short: "Create a " + singular,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := args
			if len(k.view.Fields) == 1 {
				values = []string{strings.Join(args, " ")}
			}
			c, err := newAPIClient()
			if err != nil {
				return err
			}
			created, err := k.resource(c).Create(cmd.Context(), k.view.Build(values))
			if err != nil {
				return explain(err)
			}
			printSuccess("Created %s %d", singular, k.kind.ID(created))
			return nil
		},
	}
}

// setCmd replaces the edited text field and keeps every other field.
func (k recordKind[R]) setCmd(singular string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <" + k.view.Fields[0].Name + ">",
		Short: "Change a " + singular + "'s " + k.view.Fields[0].Name,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRecordID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")

			c, err := newAPIClient()
			if err != nil {
				return err
			}
			res := k.resource(c)
			current, err := res.Get(cmd.Context(), id)
			if err != nil {
				return explain(err)
			}
			updated, err := res.Update(cmd.Context(), id, k.kind.WithText(current, text))
			if err != nil {
				return explain(err)
			}
			printSuccess("Updated %s %d: %s", singular, id, k.view.Line(updated))
			return nil
		},
	}
}

func (k recordKind[R]) rmCmd(singular string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete one or more " + singular + "s",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, a := range args {
				id, err := parseRecordID(a)
				if err != nil {
					return err
				}
				ids[i] = id
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}
			res := k.resource(c)

			// Every id is attempted even after a failure.
			ctx := cmd.Context()
			deleted := make([]bool, len(ids))
			var g errgroup.Group
			g.SetLimit(maxParallelDeletes)
			for i, id := range ids {
				g.Go(func() error {
					if err := res.Delete(ctx, id); err != nil {
						return fmt.Errorf("deleting %s %d: %w", singular, id, explain(err))
					}
					deleted[i] = true
					return nil
				})
			}
			err = g.Wait()
			for i, ok := range deleted {
				if ok {
					printSuccess("Deleted %s %d", singular, ids[i])
				}
			}
			return err
		},
	}
}

func (k recordKind[R]) uiCmd(plural string) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Edit " + plural + " interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level, _ := cfg.Log.SlogLevel()
			logger, closer, err := openLogFile(cfg.Storage.DataDir, level)
			if err != nil {
				return err
			}
			defer closer.Close()

			timeout, _ := cfg.Client.TimeoutDuration()
			c := client.New(cfg.Client.BaseURL, client.WithTimeout(timeout), client.WithLogger(logger))
			editor := listedit.New(k.kind, k.resource(c), logger)
			return runUI(cmd.Context(), editor, k.view, logger)
		},
	}
}

func runUI[R any](ctx context.Context, editor *listedit.Editor[R], view tui.View[R], logger *slog.Logger) error {
	logger.Info("ui started", "view", view.Title)
	defer logger.Info("ui stopped", "view", view.Title)
	return tui.Run(ctx, editor, view)
}

func parseRecordID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}
