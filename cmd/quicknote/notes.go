package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

const dateLayout = "2006-01-02 15:04"

func (a *app) newNewCmd() *cobra.Command {
	var title, content, tags string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a note",
		Long: `Create a note from flags. A note with neither title nor content is
discarded, the same as closing an empty editor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()
				id, err := svc.Create(ctx)
				if err != nil {
					return err
				}
				if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
					if err := svc.Cancel(ctx); err != nil {
						return err
					}
					return fmt.Errorf("nothing to save: title and content are empty")
				}
				if err := svc.AddTags(ctx, id, tags); err != nil {
					return err
				}
				if err := svc.Save(ctx, id, title, content); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Note title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Note content")
	cmd.Flags().StringVar(&tags, "tags", "", "Comma-separated tags")
	return cmd
}

func (a *app) newEditCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or content of a note",
		Long: `Change the title or content of a note. Fields whose flag is not given
keep their value. Clearing both deletes the note.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()
				id := args[0]
				if err := openForEdit(ctx, svc, id); err != nil {
					return err
				}

				draftTitle, draftContent := svc.Draft()
				if cmd.Flags().Changed("title") {
					draftTitle = title
				}
				if cmd.Flags().Changed("content") {
					draftContent = content
				}
				if err := svc.Save(ctx, id, draftTitle, draftContent); err != nil {
					return err
				}

				if _, ok := svc.Find(id); !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Note %s was empty and has been deleted.\n", id)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	return cmd
}

func (a *app) newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				n, ok := svc.Find(args[0])
				if !ok {
					return fmt.Errorf("note %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), n)
				}
				printNote(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func (a *app) newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete notes",
		Long:  "Delete notes by id. Unknown ids are ignored.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				for _, id := range args {
					if err := svc.Delete(cmd.Context(), id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func printNote(w io.Writer, n core.Note) {
	title := n.DisplayTitle()
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", len([]rune(title))))
	fmt.Fprintf(w, "id:      %s\n", n.ID)
	if len(n.Tags) > 0 {
		fmt.Fprintf(w, "tags:    %s\n", strings.Join(n.Tags, ", "))
	}
	fmt.Fprintf(w, "created: %s\n", n.CreatedAt.Local().Format(dateLayout))
	fmt.Fprintf(w, "updated: %s\n", n.UpdatedAt.Local().Format(dateLayout))
	if n.Content != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, n.Content)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
