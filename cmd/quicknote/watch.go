package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/adapters/lifecycle"
	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes made to the notebook by other processes",
		Long: `Watch the data directory and print a line each time the notes are
changed from outside, with the new note count. Requires the fs adapter.
Stops on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()

				events, err := svc.Watch(ctx)
				if err != nil {
					return err
				}
				source := lifecycle.NewSource(events, core.NotesKey)
				if err := source.Start(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Watching %d notes. Press Ctrl+C to stop.\n", len(svc.Notes()))
				for e := range source.Events() {
					slog.Debug("storage event", "event", e.String())
					fmt.Fprintf(out, "%s  %s  (%d notes)\n", time.Now().Format(time.TimeOnly), e, len(svc.Notes()))
				}
				return nil
			})
		},
	}
}
