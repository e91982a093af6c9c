// Package evaluate scores a submitted answer sheet against a question set.
package evaluate

import (
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/kgtutor/internal/question"
)

// Result is the verdict for one question.
type Result struct {
	QuestionIndex int    `json:"questionIndex"`
	QuestionID    int64  `json:"questionId"`
	IsCorrect     bool   `json:"isCorrect"`
	CorrectOption int    `json:"correctAnswer"`
	Submitted     string `json:"submittedAnswer"`
	ConceptID     *int64 `json:"conceptId"`
}

// Evaluation is the outcome of one answer sheet.
type Evaluation struct {
	Results           []Result `json:"results"`
	FailedQuestionIDs []int64  `json:"failedQuestionIds"`
	Score             int      `json:"score"`
	Total             int      `json:"total"`
	Percentage        float64  `json:"percentage"`
}

// Evaluate compares answers to questions by position. Answers beyond the
// question list are ignored; missing, blank or non-numeric answers count
// as incorrect. An answer is read by its leading integer, so "2.0" and
// "2)" both choose option 2.
func Evaluate(questions []question.Question, answers []string) Evaluation {
	ev := Evaluation{
		Results:           make([]Result, 0, len(questions)),
		FailedQuestionIDs: []int64{},
		Total:             len(questions),
	}
	failed := make(map[int64]bool)

	for i, q := range questions {
		var submitted string
		if i < len(answers) {
			submitted = strings.TrimSpace(answers[i])
		}
		choice, ok := leadingInt(submitted)
		correct := ok && choice == q.CorrectOption

		ev.Results = append(ev.Results, Result{
			QuestionIndex: i,
			QuestionID:    q.ID,
			IsCorrect:     correct,
			CorrectOption: q.CorrectOption,
			Submitted:     submitted,
			ConceptID:     q.ConceptID,
		})
		if correct {
			ev.Score++
			continue
		}
		if !failed[q.ID] {
			failed[q.ID] = true
			ev.FailedQuestionIDs = append(ev.FailedQuestionIDs, q.ID)
		}
	}

	ev.Percentage = Percentage(ev.Score, ev.Total)
	return ev
}

// Percentage is score/total*100 rounded to two decimals, and 0 when total
// is zero.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*100*100) / 100
}

// leadingInt parses an optional sign followed by the leading run of
// digits in s, ignoring anything after it.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}
