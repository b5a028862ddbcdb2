package quiz

import "github.com/shopspring/decimal"

// Grade is the outcome of grading an attempt.
type Grade struct {
	Score      int
	Total      int
	Percentage float64
	Passed     bool
	Answers    []Answer // one per answered quiz question, AttemptID unset
}

// GradeAttempt grades the submitted answers against the quiz questions.
// The total is the sum of the points of every question. Answers to questions outside the quiz are
// ignored and only the first answer to a question counts. An option that does not belong to its
// question earns nothing. A quiz worth 0 points can't be passed.
func GradeAttempt(questions []Question, submitted []SubmittedAnswer) Grade {
	byID := make(map[string]Question, len(questions))
	var g Grade
	for _, q := range questions {
		byID[q.ID] = q
		g.Total += q.Points
	}

	seen := make(map[string]bool, len(submitted))
	g.Answers = make([]Answer, 0, len(submitted))
	for _, sa := range submitted {
		q, ok := byID[sa.QuestionID]
		if !ok || seen[sa.QuestionID] {
			continue
		}
		seen[sa.QuestionID] = true

		ans := Answer{QuestionID: q.ID}
		if sa.SelectedOptionID != "" {
			for _, o := range q.Options {
				if o.ID != sa.SelectedOptionID {
					continue
				}
				optID := o.ID
				ans.SelectedOptionID = &optID
				if o.IsCorrect {
					g.Score += q.Points
				}
				break
			}
		}
		g.Answers = append(g.Answers, ans)
	}

	g.Percentage = Percentage(g.Score, g.Total)
	g.Passed = g.Total > 0 && g.Score*2 >= g.Total
	return g
}

// Percentage returns score/total*100 rounded to 2 decimal places, 0 when total is 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}
