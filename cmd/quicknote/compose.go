package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newComposeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compose [id]",
		Short: "Write a note line by line from stdin",
		Long: `Write a note from standard input. The first line is the title, every
following line is appended to the content. The draft is autosaved after each
quiet period (--autosave-delay). End of input saves the note; an interrupt
keeps what was autosaved. Without an id a new note is created.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				return compose(cmd, svc, args)
			})
		},
	}
}

type line struct {
	text string
	err  error
}

func compose(cmd *cobra.Command, svc *core.Service, args []string) error {
	ctx := cmd.Context()

	var id string
	if len(args) == 1 {
		id = args[0]
		if err := openForEdit(ctx, svc, id); err != nil {
			return err
		}
	} else {
		var err error
		if id, err = svc.Create(ctx); err != nil {
			return err
		}
	}

	title, body := svc.Draft()
	var content []string
	if body != "" {
		content = strings.Split(body, "\n")
	}
	haveTitle := title != ""

	// Reading stdin blocks, so it runs on its own goroutine and the loop
	// below can still react to interrupts.
	lines := make(chan line)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- line{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- line{err: err}:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return interrupted(svc, id)

		case l, ok := <-lines:
			if !ok {
				return finish(cmd, svc, id)
			}
			if l.err != nil {
				return fmt.Errorf("failed to read input: %w", l.err)
			}
			if !haveTitle {
				title, haveTitle = l.text, true
			} else {
				content = append(content, l.text)
			}
			svc.Edit(title, strings.Join(content, "\n"))
			slog.Debug("draft updated", "id", id, "state", svc.SaveState().String())
		}
	}
}

// finish saves the draft once input ends.
func finish(cmd *cobra.Command, svc *core.Service, id string) error {
	ctx := cmd.Context()
	if err := svc.SaveDraft(ctx); err != nil {
		return err
	}
	if _, ok := svc.Find(id); !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing written, note discarded.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// interrupted persists whatever autosave would have written and closes the session.
func interrupted(svc *core.Service, id string) error {
	ctx := context.Background()
	if err := svc.Flush(ctx); err != nil {
		slog.Error("final autosave failed", "id", id, "error", err)
	}
	if err := svc.Cancel(ctx); err != nil {
		return err
	}
	return context.Canceled
}
