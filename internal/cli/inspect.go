package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdiagram/pkg/catalog"
	"github.com/matzehuels/stackdiagram/pkg/diagram"
)

// dotCommand creates the dot command, which prints a diagram's DOT source.
func (c *CLI) dotCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dot <file|name>",
		Short: "Print the Graphviz DOT source of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := freezeArg(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				data, err := d.JSON()
				if err != nil {
					return err
				}
				_, err = c.Out.Write(data)
				return err
			}
			_, err = io.WriteString(c.Out, d.DOT())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structural JSON description instead")
	return cmd
}

// treeCommand creates the tree command, which prints the cluster hierarchy.
func (c *CLI) treeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <file|name>",
		Short: "Print the cluster and node hierarchy of a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := freezeArg(args[0])
			if err != nil {
				return err
			}
			s := d.Stats()
			fmt.Fprintln(c.Out, diagramTree(d))
			fmt.Fprintln(c.Out, statsLine(s.Nodes, s.Clusters, s.Edges))
			return nil
		},
	}
}

// listCommand creates the list command, which shows the built-in diagrams.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in diagrams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.Out, catalogTable(catalog.All()))
			return nil
		},
	}
}

func freezeArg(arg string) (*diagram.Diagram, error) {
	src, err := loadSource(arg)
	if err != nil {
		return nil, err
	}
	return src.freeze()
}

// diagramTree renders the scope hierarchy of d, clusters before their members.
func diagramTree(d *diagram.Diagram) *tree.Tree {
	t := tree.Root(StyleTitle.Render(d.Title())).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim)
	addMembers(t, d, diagram.Root)
	return t
}

func addMembers(t *tree.Tree, d *diagram.Diagram, scope diagram.ClusterID) {
	for _, m := range d.Members(scope) {
		if m.Node != nil {
			t.Child(fmt.Sprintf("%s %s", m.Node.Label, StyleDim.Render("("+string(m.Node.Category)+")")))
			continue
		}
		name := m.Cluster.Name
		if name == "" {
			name = StyleDim.Render("(unnamed)")
		}
		sub := tree.Root(StyleHighlight.Render(name)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(StyleDim)
		addMembers(sub, d, m.Cluster.ID)
		t.Child(sub)
	}
}

func catalogTable(entries []catalog.Entry) *table.Table {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		cfg := e.Config()
		rows = append(rows, []string{e.Name, cfg.Title, e.Description})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Name", "Title", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return StyleHighlight.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}
