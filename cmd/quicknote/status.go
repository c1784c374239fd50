package main

import (
	"fmt"
	"strconv"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
)

func (a *app) newStatusCmd() *cobra.Command {
	var mermaid bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the notebook and storage state",
		Long: `Print the notebook and storage state as JSON, or as a Mermaid diagram
with --mermaid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withNotebook(cmd, func(svc *core.Service) error {
				state, ok := svc.State().(core.ServiceState)
				if !ok || !mermaid {
					return writeJSON(cmd.OutOrStdout(), svc.State())
				}

				config := introspection.DefaultDiagramConfig()
				config.SecondaryID = "notebook"
				config.SecondaryLabel = "Notebook Topology"
				fmt.Fprintln(cmd.OutOrStdout(), introspection.TreeDiagram(buildTree(state), config))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "Print a Mermaid diagram instead of JSON")
	return cmd
}

type treeNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []treeNode
}

// buildTree maps the service state to diagram nodes. Status values must be
// classes known to introspection.DefaultStyles().
func buildTree(st core.ServiceState) treeNode {
	autosave := "suspended"
	switch st.SaveState {
	case core.StateUnsaved.String():
		autosave = "pending"
	case core.StateSaving.String():
		autosave = "running"
	}

	session := "stopped"
	if st.ActiveNote != "" {
		session = "running"
	}

	return treeNode{
		Name:   "Notebook",
		Status: "running",
		Metadata: map[string]string{
			"type":  "container",
			"notes": strconv.Itoa(st.NoteCount),
		},
		Children: []treeNode{
			{
				Name:   "Session",
				Status: session,
				Metadata: map[string]string{
					"type": "process",
					"sort": st.Sort,
					"tag":  st.TagFilter,
				},
				Children: []treeNode{{
					Name:     "Autosave",
					Status:   autosave,
					Metadata: map[string]string{"type": "goroutine", "delay": st.AutosaveDelay},
				}},
			},
			{
				Name:     "Storage",
				Status:   "running",
				Metadata: map[string]string{"type": st.StorageType},
			},
		},
	}
}
