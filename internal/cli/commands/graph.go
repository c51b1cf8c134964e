package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annokit/annokit/internal/cli/ui"
	"github.com/annokit/annokit/mapping"
)

var graphJSON bool

// NewGraphCommand creates the graph command
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <type>",
		Short: "Show the mapping graph for an annotation type",
		Long: `Build the meta-annotation mapping graph rooted at the given type and
print each node with its distance, source, and mirror groups. Alias and
convention mappings onto root attributes are listed per node.`,
		Args: cobra.ExactArgs(1),
		RunE: runGraph,
	}

	cmd.Flags().BoolVar(&graphJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

type graphNodeDetail struct {
	Type          string            `json:"type"`
	Distance      int               `json:"distance"`
	Source        string            `json:"source,omitempty"`
	Synthesizable bool              `json:"synthesizable"`
	Mirrors       [][]string        `json:"mirrors,omitempty"`
	Mappings      map[string]string `json:"mappings,omitempty"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	name := args[0]

	if ws.registry.TypeOf(name) == nil {
		ui.PrintUnknownName(os.Stderr, "annotation type", name, ws.registry.TypeNames(), ws.config.Output.NoColor)
		return fmt.Errorf("annotation type %q is not registered", name)
	}

	graph, err := mapping.ForType(ws.registry, name, ws.config.Filter(), nil)
	if err != nil {
		ui.PrintError(os.Stderr, err, ws.config.Output.NoColor)
		return err
	}

	nodes := make([]graphNodeDetail, 0, graph.Len())
	for i := 0; i < graph.Len(); i++ {
		nodes = append(nodes, nodeDetailOf(graph.Get(i)))
	}

	if graphJSON || ws.config.Output.Format == "json" {
		return json.NewEncoder(os.Stdout).Encode(nodes)
	}

	table := ui.NewTable(os.Stdout, []string{"TYPE", "DISTANCE", "SOURCE", "MIRRORS", "ROOT MAPPINGS"}, ws.config.Output.NoColor)
	for _, n := range nodes {
		mirrors := make([]string, 0, len(n.Mirrors))
		for _, group := range n.Mirrors {
			mirrors = append(mirrors, "{"+strings.Join(group, ", ")+"}")
		}
		mappings := make([]string, 0, len(n.Mappings))
		for from, to := range n.Mappings {
			mappings = append(mappings, from+" -> "+to)
		}
		sort.Strings(mappings)
		table.AddRow(n.Type,
			strconv.Itoa(n.Distance),
			n.Source,
			strings.Join(mirrors, " "),
			strings.Join(mappings, ", "))
	}
	table.Render()
	return nil
}

func nodeDetailOf(node *mapping.Node) graphNodeDetail {
	detail := graphNodeDetail{
		Type:          node.Type().Name(),
		Distance:      node.Distance(),
		Synthesizable: node.Synthesizable(),
	}
	if node.Source() != nil {
		detail.Source = node.Source().Type().Name()
	}

	mirrors := node.Mirrors()
	for i := 0; i < mirrors.Len(); i++ {
		set := mirrors.Get(i)
		group := make([]string, 0, len(set.Indexes()))
		for _, idx := range set.Indexes() {
			group = append(group, node.Attributes().At(idx).Name)
		}
		detail.Mirrors = append(detail.Mirrors, group)
	}

	attrs := node.Attributes()
	root := node.Root().Attributes()
	for i := 0; i < attrs.Len(); i++ {
		mapped := node.AliasMapping(i)
		if mapped == -1 {
			mapped = node.ConventionMapping(i)
		}
		if mapped == -1 {
			continue
		}
		if detail.Mappings == nil {
			detail.Mappings = make(map[string]string)
		}
		detail.Mappings[attrs.At(i).Name] = root.At(mapped).Name
	}
	return detail
}
