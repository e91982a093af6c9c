package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and mirror the concept graph",
}

var graphCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report duplicate names, dangling edges and prerequisite cycles",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		idx, err := a.concepts.LoadIndex(cmd.Context())
		if err != nil {
			return fmt.Errorf("load graph: %w", err)
		}

		problems := idx.Check()
		fmt.Printf("%d concepts, %d roots\n", len(idx.Concepts()), len(idx.Roots()))

		// Concepts caught in a cycle are missing from the order and show
		// up under the problems below.
		if order := idx.TopologicalOrder(); len(order) > 0 {
			fmt.Println()
			fmt.Println("Study order")
			fmt.Println(strings.Repeat("─", 60))
			for i, c := range order {
				fmt.Printf("%3d. %-32s  %d dependents\n", i+1, truncate(c.Name, 32), len(idx.Dependents(c.ID)))
			}
			fmt.Println()
		}
		if len(problems) == 0 {
			fmt.Println("No problems found.")
			return nil
		}
		for _, p := range problems {
			fmt.Println("  -", p)
		}
		return fmt.Errorf("%d graph problems", len(problems))
	},
}

var graphSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the stored concept graph into Neo4j",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		concepts, rels, err := a.syncGraph(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d concepts and %d relationships\n", concepts, rels)
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphCheckCmd)
	graphCmd.AddCommand(graphSyncCmd)
}
