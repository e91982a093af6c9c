package cmd

import (
	"fmt"

	"github.com/abhisek/kgtutor/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load concepts, relationships and questions from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := seed.Load(args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		sum, err := seed.Apply(cmd.Context(), doc, a.concepts, a.questions, a.log)
		fmt.Printf("Created %d concepts, %d relationships, %d questions\n",
			sum.Concepts, sum.Relationships, sum.Questions)
		if err != nil {
			return err
		}
		return a.mirrorGraph(cmd.Context())
	},
}
