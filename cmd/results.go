package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect recorded quiz submissions",
}

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent submission results, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		student, _ := cmd.Flags().GetString("student")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.store.Results().ListSubmissionResults(cmd.Context(), student, limit)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}
		if asJSON {
			return printJSON(results)
		}
		if len(results) == 0 {
			fmt.Println("No submission results found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-16s  %-16s  %7s  %8s  %s\n",
			"ID", "Timestamp", "Student", "Type", "Score", "Percent", "Failed")
		fmt.Println(strings.Repeat("─", 100))
		for _, r := range results {
			failed := make([]string, len(r.FailedQuestionIDs))
			for i, id := range r.FailedQuestionIDs {
				failed[i] = fmt.Sprint(id)
			}
			fmt.Printf("%-5d  %-19s  %-16s  %-16s  %3d/%-3d  %7.2f%%  %s\n",
				r.ID,
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(r.StudentIdentity, 16),
				truncate(r.QuestionType, 16),
				r.Score, r.TotalQuestions,
				r.Percentage,
				strings.Join(failed, ","),
			)
		}
		return nil
	},
}

func init() {
	resultsListCmd.Flags().String("student", "", "Only show results for this student")
	resultsListCmd.Flags().IntP("limit", "n", 20, "Number of results to show (0 = all)")
	resultsListCmd.Flags().Bool("json", false, "Print results as JSON")

	resultsCmd.AddCommand(resultsListCmd)
}
