package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove tags of a note",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id> <tags>",
		Short: "Add comma-separated tags to a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editTags(cmd, args[0], func(svc *core.Service) error {
				return svc.AddTags(cmd.Context(), args[0], strings.Join(args[1:], ","))
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id> <tag>...",
		Short: "Remove tags from a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editTags(cmd, args[0], func(svc *core.Service) error {
				for _, t := range args[1:] {
					if err := svc.RemoveTag(cmd.Context(), args[0], t); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	return cmd
}

// editTags opens id, applies fn and closes the session without touching
// the title or content.
func (a *app) editTags(cmd *cobra.Command, id string, fn func(svc *core.Service) error) error {
	return a.withNotebook(cmd, func(svc *core.Service) error {
		ctx := cmd.Context()
		if err := openForEdit(ctx, svc, id); err != nil {
			return err
		}
		if err := fn(svc); err != nil {
			return err
		}
		if err := svc.Cancel(ctx); err != nil {
			return err
		}

		n, _ := svc.Find(id)
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(n.Tags, ", "))
		return nil
	})
}
