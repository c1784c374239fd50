package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show or change the color theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"toggle", "dark", "light"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				ctx := cmd.Context()

				var (
					dark bool
					err  error
				)
				switch {
				case len(args) == 0:
					dark, err = svc.DarkMode(ctx)
				case args[0] == "toggle":
					dark, err = svc.ToggleDarkMode(ctx)
				default:
					dark = args[0] == "dark"
					err = svc.SetDarkMode(ctx, dark)
				}
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), themeName(dark))
				return nil
			})
		},
	}
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
