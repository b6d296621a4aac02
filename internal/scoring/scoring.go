// Package scoring grades a submitted attempt against its exam record.
package scoring

import "github.com/lautarok/yourstack/internal/model"

// Compute grades answers against the record. Unanswered questions count as
// incorrect. The approved link is only attached when the attempt passes.
func Compute(record *model.ExamRecord, answers map[int]int) model.Result {
	correct := 0
	for _, q := range record.Questions {
		if selected, ok := answers[q.ID]; ok && selected == q.CorrectAnswerID {
			correct++
		}
	}

	total := len(record.Questions)
	pct := Percentage(correct, total)
	res := model.Result{
		CorrectCount:       correct,
		TotalCount:         total,
		Percentage:         pct,
		ApprovalPercentage: record.Exam.ApprovalPercentage,
		Passed:             pct >= record.Exam.ApprovalPercentage,
	}
	if res.Passed && record.Exam.ApprovedLink != nil {
		link := *record.Exam.ApprovedLink
		res.ApprovedLink = &link
	}
	return res
}

// Percentage returns correct/total*100 rounded half up, in integer arithmetic
// so halves are exact.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
