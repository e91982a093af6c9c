package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/kgtutor/internal/concept"
	"github.com/spf13/cobra"
)

var conceptCmd = &cobra.Command{
	Use:   "concept",
	Short: "Manage concepts in the knowledge graph",
}

var conceptAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a concept",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.concepts.CreateConcept(cmd.Context(), name, description)
		if err != nil {
			return err
		}
		fmt.Printf("Created concept %d: %s\n", c.ID, c.Name)
		return a.mirrorGraph(cmd.Context())
	},
}

var conceptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List concepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		concepts, err := a.concepts.ListConcepts(cmd.Context())
		if err != nil {
			return fmt.Errorf("list concepts: %w", err)
		}
		if len(concepts) == 0 {
			fmt.Println("No concepts found.")
			return nil
		}

		fmt.Printf("%-5s  %-24s  %s\n", "ID", "Name", "Description")
		fmt.Println(strings.Repeat("─", 80))
		for _, c := range concepts {
			fmt.Printf("%-5d  %-24s  %s\n", c.ID, truncate(c.Name, 24), truncate(c.Description, 47))
		}
		return nil
	},
}

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage relationships between concepts",
}

var relationAddCmd = &cobra.Command{
	Use:   "add <source-id> <target-id>",
	Short: "Create a relationship (source depends on target by default)",
	Long: `Create a relationship between two concepts. By default the source
depends on the target. With graph.backend=neo4j the Neo4j mirror is
re-synced after the write.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := parseID(args[0])
		if err != nil {
			return err
		}
		target, err := parseID(args[1])
		if err != nil {
			return err
		}
		label, _ := cmd.Flags().GetString("type")

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.concepts.CreateRelationship(cmd.Context(), source, target, concept.ParseRelationType(label))
		if err != nil {
			return err
		}
		fmt.Printf("Created relationship %d: %s\n", r.ID, r)
		return a.mirrorGraph(cmd.Context())
	},
}

var relationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List relationships",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		rels, err := a.concepts.ListRelationships(ctx)
		if err != nil {
			return fmt.Errorf("list relationships: %w", err)
		}
		if len(rels) == 0 {
			fmt.Println("No relationships found.")
			return nil
		}
		concepts, err := a.concepts.ListConcepts(ctx)
		if err != nil {
			return fmt.Errorf("list concepts: %w", err)
		}
		names := make(map[int64]string, len(concepts))
		for _, c := range concepts {
			names[c.ID] = c.Name
		}

		fmt.Printf("%-5s  %-24s  %-16s  %s\n", "ID", "Source", "Type", "Target")
		fmt.Println(strings.Repeat("─", 80))
		for _, r := range rels {
			fmt.Printf("%-5d  %-24s  %-16s  %s\n",
				r.ID, truncate(names[r.SourceID], 24), r.Type.Label(), names[r.TargetID])
		}
		return nil
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	conceptAddCmd.Flags().String("name", "", "Concept name")
	conceptAddCmd.Flags().String("description", "", "Concept description")
	_ = conceptAddCmd.MarkFlagRequired("name")

	relationAddCmd.Flags().String("type", concept.DependsOnLabel, "Relationship type; only DEPENDS_ON is traversed")

	conceptCmd.AddCommand(conceptAddCmd)
	conceptCmd.AddCommand(conceptListCmd)
	relationCmd.AddCommand(relationAddCmd)
	relationCmd.AddCommand(relationListCmd)
}
