package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	portfolio "github.com/goliatone/go-portfolio"
	contentcmd "github.com/goliatone/go-portfolio/internal/commands/content"
	"github.com/goliatone/go-portfolio/internal/coordinator"
	"github.com/goliatone/go-portfolio/internal/markdown"
	"github.com/goliatone/go-portfolio/pkg/storage"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newMigrateCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state.cfg.Storage.AutoMigrate = true
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			db := module.Container().DB()
			if db == nil {
				return fmt.Errorf("migrate: no database configured")
			}
			version, err := storage.Version(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func newListCommand(state *cliState) *cobra.Command {
	var (
		locale    string
		opts      portfolio.ListOptions
		published bool
		featured  bool
	)
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List the entries of a kind in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("published") {
				opts.Published = &published
			}
			if cmd.Flags().Changed("featured") {
				opts.Featured = &featured
			}
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			views, err := module.List(cmd.Context(), args[0], locale, opts)
			if err != nil {
				return err
			}
			if state.asJSON {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			return writeViews(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "requested locale")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only entries carrying this tag")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of entries")
	cmd.Flags().BoolVar(&published, "published", false, "filter on the published flag")
	cmd.Flags().BoolVar(&featured, "featured", false, "filter on the featured flag")
	return cmd
}

func newShowCommand(state *cliState) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "show <kind> <id-or-slug>",
		Short: "Show one entry resolved for a locale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			view, err := module.Get(cmd.Context(), args[0], args[1], locale)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "requested locale")
	return cmd
}

func newGroupsCommand(state *cliState) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "groups <kind>",
		Short: "List the entries of a kind bucketed by its group field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			groups, err := module.Grouped(cmd.Context(), args[0], locale)
			if err != nil {
				return err
			}
			if state.asJSON {
				return writeJSON(cmd.OutOrStdout(), groups)
			}
			out := cmd.OutOrStdout()
			for _, group := range groups {
				fmt.Fprintf(out, "%s\n", group.Name)
				for _, item := range group.Items {
					fmt.Fprintf(out, "  %s\t%s\n", item.Slug, item.Title)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "requested locale")
	return cmd
}

func newTagsCommand(state *cliState) *cobra.Command {
	var (
		opts      portfolio.ListOptions
		published bool
	)
	cmd := &cobra.Command{
		Use:   "tags <kind>",
		Short: "Count the tags of a kind's entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("published") {
				opts.Published = &published
			}
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := module.Tags(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			if state.asJSON {
				return writeJSON(cmd.OutOrStdout(), counts)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, count := range counts {
				fmt.Fprintf(w, "%s\t%d\n", count.Tag, count.Count)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&published, "published", false, "filter on the published flag")
	return cmd
}

func newSaveCommand(state *cliState) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save <kind>",
		Short: "Save one locale of an entry from a JSON document",
		Long: `Save reads a JSON document with the fields of a save command:

  {"content_id": "...", "locale": "en",
   "shared": {"slug": "hello", "published": true},
   "localized": {"title": "Hello"},
   "tags": ["go"], "set_tags": true}

Omit content_id to create the entry. Use --file - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := readSaveCommand(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			msg.Kind = args[0]

			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			subs := module.Container().Commands().Subscribe(state.retries)
			defer unsubscribe(subs)

			var result *coordinator.SaveResult
			msg.Result = func(r *coordinator.SaveResult) { result = r }
			dispatchErr := dispatcher.Dispatch(cmd.Context(), msg)
			if result != nil && result.Entry != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s %s (created=%t)\n", result.Entry.Kind, result.Entry.ID, result.Created)
			}
			return dispatchErr
		},
	}
	cmd.Flags().StringVar(&file, "file", "-", "JSON document to read")
	return cmd
}

func newDeleteCommand(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an entry with its translations and tags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("parse id: %w", err)
			}
			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			subs := module.Container().Commands().Subscribe(state.retries)
			defer unsubscribe(subs)

			if err := dispatcher.Dispatch(cmd.Context(), contentcmd.DeleteContentCommand{Kind: args[0], ContentID: id}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", args[0], id)
			return nil
		},
	}
}

func newImportCommand(state *cliState) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import markdown files below the content directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = state.cfg.Markdown.ContentDir
			}
			msg := contentcmd.ImportMarkdownCommand{Root: root}
			if len(args) == 1 {
				msg.Path = args[0]
			}

			module, err := state.open(cmd.Context())
			if err != nil {
				return err
			}
			var report *markdown.Report
			msg.Result = func(r *markdown.Report) { report = r }

			importErr := module.Container().Commands().Import.Execute(cmd.Context(), msg)
			if report != nil {
				if state.asJSON {
					if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, skipped %d, failed %d\n",
						report.Created, report.Updated, report.Skipped, len(report.Errors))
				}
			}
			return importErr
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "content directory (default: markdown.content_dir)")
	return cmd
}

func readSaveCommand(stdin io.Reader, file string) (contentcmd.SaveContentCommand, error) {
	var reader io.Reader = stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return contentcmd.SaveContentCommand{}, err
		}
		defer f.Close()
		reader = f
	}
	var msg contentcmd.SaveContentCommand
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&msg); err != nil {
		return contentcmd.SaveContentCommand{}, fmt.Errorf("decode save document: %w", err)
	}
	return msg, nil
}

func unsubscribe(subs []contentcmd.Subscription) {
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func writeViews(w io.Writer, views []portfolio.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tLOCALE\tTITLE\tID")
	for _, view := range views {
		locale := view.Locale
		if view.Fallback {
			locale += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", view.Slug, locale, view.Title, view.ID)
	}
	return tw.Flush()
}
