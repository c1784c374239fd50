package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of quicknote",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quicknote version %s\n", quicknote.Version)
		},
	}
}
