package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newListCmd() *cobra.Command {
	var (
		search, tag, tagGlob, sortKey, lang string
		asJSON                              bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Long: `List notes, newest first. --search matches title, content and tags
case-insensitively; --tag keeps notes with that exact tag; --tag-glob keeps
notes with a tag matching a glob such as "work/**".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := core.ParseSortKey(sortKey)
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, joinSortKeys())
			}
			tagLang, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("invalid --lang: %w", err)
			}

			return a.withNotebook(cmd, func(svc *core.Service) error {
				svc.SetSearch(search)
				svc.SetTagFilter(tag)
				svc.SetSort(key)
				if err := svc.SetTagPattern(tagGlob); err != nil {
					return err
				}

				q := svc.Query()
				q.Lang = tagLang
				view := core.Apply(svc.Notes(), q)

				if asJSON {
					notes := view.Notes
					if notes == nil {
						notes = []core.Note{}
					}
					return writeJSON(cmd.OutOrStdout(), notes)
				}

				dark, err := svc.DarkMode(cmd.Context())
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), newPalette(cmd.OutOrStdout(), dark), view.Notes)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Free-text search")
	cmd.Flags().StringVar(&tag, "tag", core.AllTags, "Only notes with this tag")
	cmd.Flags().StringVar(&tagGlob, "tag-glob", "", "Only notes with a tag matching this glob")
	cmd.Flags().StringVar(&sortKey, "sort", string(core.SortUpdatedDesc), "Sort order: "+joinSortKeys())
	cmd.Flags().StringVar(&lang, "lang", "und", "Collation language for title sorting (BCP 47)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func (a *app) newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				for _, t := range svc.View().Tags {
					fmt.Fprintln(cmd.OutOrStdout(), t)
				}
				return nil
			})
		},
	}
}

func printList(w io.Writer, p palette, notes []core.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, p.muted.Render("No notes found."))
		return
	}
	for _, n := range notes {
		line := fmt.Sprintf("%s  %s  %s",
			p.id.Render(n.ID),
			p.date.Render(n.UpdatedAt.Local().Format(dateLayout)),
			p.title.Render(n.DisplayTitle()),
		)
		if len(n.Tags) > 0 {
			tags := make([]string, len(n.Tags))
			for i, t := range n.Tags {
				tags[i] = p.tag.Render("#" + t)
			}
			line += "  " + strings.Join(tags, " ")
		}
		fmt.Fprintln(w, line)
	}
}

func joinSortKeys() string {
	keys := make([]string, len(core.SortKeys))
	for i, k := range core.SortKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
