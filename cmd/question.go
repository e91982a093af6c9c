package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/kgtutor/internal/question"
	"github.com/spf13/cobra"
)

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Manage quiz questions",
}

var questionUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a multiple-choice question",
	Example: `  kgtutor question upload --text "What does x := 3 do?" \
    --option "Declares x" --option "Compares x" --option "Prints x" --option "Deletes x" \
    --correct 1 --type basics --concept 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		options, _ := cmd.Flags().GetStringArray("option")
		correct, _ := cmd.Flags().GetInt("correct")
		qtype, _ := cmd.Flags().GetString("type")
		rawConcept, _ := cmd.Flags().GetString("concept")

		conceptID, err := question.ParseConceptRef(rawConcept)
		if err != nil {
			return err
		}

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.questions.Upload(cmd.Context(), question.Upload{
			Text:          text,
			Options:       options,
			CorrectOption: correct,
			Type:          qtype,
			ConceptID:     conceptID,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded question %d (%s)\n", q.ID, q.Type)
		return nil
	},
}

var questionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the questions of a quiz type",
	RunE: func(cmd *cobra.Command, args []string) error {
		qtype, _ := cmd.Flags().GetString("type")

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		questions, err := a.questions.ByType(cmd.Context(), qtype)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			fmt.Printf("No questions of type %q.\n", qtype)
			return nil
		}

		fmt.Printf("%-5s  %-8s  %-7s  %s\n", "ID", "Concept", "Correct", "Text")
		fmt.Println(strings.Repeat("─", 80))
		for _, q := range questions {
			linked := "-"
			if q.ConceptID != nil {
				linked = fmt.Sprint(*q.ConceptID)
			}
			fmt.Printf("%-5d  %-8s  %-7d  %s\n", q.ID, linked, q.CorrectOption, truncate(q.Text, 52))
		}
		return nil
	},
}

func init() {
	questionUploadCmd.Flags().String("text", "", "Question text")
	questionUploadCmd.Flags().StringArray("option", nil, "Answer option, repeat up to 4 times in order")
	questionUploadCmd.Flags().Int("correct", 0, "1-based index of the correct option")
	questionUploadCmd.Flags().String("type", "", "Quiz type the question belongs to")
	questionUploadCmd.Flags().String("concept", "", "Concept id the question exercises (optional)")
	_ = questionUploadCmd.MarkFlagRequired("text")
	_ = questionUploadCmd.MarkFlagRequired("correct")
	_ = questionUploadCmd.MarkFlagRequired("type")

	questionListCmd.Flags().String("type", "", "Quiz type")
	_ = questionListCmd.MarkFlagRequired("type")

	questionCmd.AddCommand(questionUploadCmd)
	questionCmd.AddCommand(questionListCmd)
}
