package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <answers...>",
	Short: "Grade answers against a quiz type without recommendations",
	Long: `Grade answers positionally against the questions of a quiz type, ordered by id.
Answers are compared as trimmed strings to the 1-based correct option index.
Pass "" for an unanswered question.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		qtype, _ := cmd.Flags().GetString("type")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		eval, err := a.submissions.Evaluate(cmd.Context(), qtype, args)
		if err != nil {
			return err
		}
		return printJSON(eval)
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <question-id...>",
	Short: "Recommend prerequisite practice for failed questions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, raw := range args {
			id, err := parseID(raw)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		bundle, err := a.submissions.Recommend(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("recommend: %w", err)
		}
		return printJSON(bundle)
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <answers...>",
	Short: "Grade a quiz attempt, record it and recommend remediation",
	RunE: func(cmd *cobra.Command, args []string) error {
		student, _ := cmd.Flags().GetString("student")
		qtype, _ := cmd.Flags().GetString("type")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.submissions.Submit(cmd.Context(), student, qtype, args)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	evaluateCmd.Flags().String("type", "", "Quiz type")
	_ = evaluateCmd.MarkFlagRequired("type")

	submitCmd.Flags().String("student", "", "Student identity")
	submitCmd.Flags().String("type", "", "Quiz type")
	_ = submitCmd.MarkFlagRequired("student")
	_ = submitCmd.MarkFlagRequired("type")
}
