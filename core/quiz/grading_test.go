package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeAttempt(t *testing.T) {
	questions := []Question{
		{ID: "q1", Points: 1, Options: []Option{{ID: "q1a", IsCorrect: true}, {ID: "q1b"}}},
		{ID: "q2", Points: 2, Options: []Option{{ID: "q2a"}, {ID: "q2b", IsCorrect: true}}},
		{ID: "q3", Points: 3, Options: []Option{{ID: "q3a", IsCorrect: true}, {ID: "q3b"}}},
	}

	tests := []struct {
		name           string
		questions      []Question
		answers        []SubmittedAnswer
		wantScore      int
		wantTotal      int
		wantPercentage float64
		wantPassed     bool
		wantAnswers    int
	}{
		{name: "no answers", questions: questions, wantTotal: 6},
		{
			name:      "all correct",
			questions: questions,
			answers: []SubmittedAnswer{
				{QuestionID: "q1", SelectedOptionID: "q1a"},
				{QuestionID: "q2", SelectedOptionID: "q2b"},
				{QuestionID: "q3", SelectedOptionID: "q3a"},
			},
			wantScore: 6, wantTotal: 6, wantPercentage: 100, wantPassed: true, wantAnswers: 3,
		},
		{
			name:      "exactly half passes",
			questions: questions,
			answers: []SubmittedAnswer{
				{QuestionID: "q3", SelectedOptionID: "q3a"},
				{QuestionID: "q2", SelectedOptionID: "q2a"},
			},
			wantScore: 3, wantTotal: 6, wantPercentage: 50, wantPassed: true, wantAnswers: 2,
		},
		{
			name:      "below half fails",
			questions: questions,
			answers: []SubmittedAnswer{
				{QuestionID: "q2", SelectedOptionID: "q2b"},
				{QuestionID: "q1", SelectedOptionID: "q1b"},
			},
			wantScore: 2, wantTotal: 6, wantPercentage: 33.33, wantPassed: false, wantAnswers: 2,
		},
		{
			name:      "rounding",
			questions: questions[:2],
			answers:   []SubmittedAnswer{{QuestionID: "q2", SelectedOptionID: "q2b"}},
			wantScore: 2, wantTotal: 3, wantPercentage: 66.67, wantPassed: true, wantAnswers: 1,
		},
		{
			name:      "foreign question ignored",
			questions: questions,
			answers: []SubmittedAnswer{
				{QuestionID: "other", SelectedOptionID: "q3a"},
				{QuestionID: "q1", SelectedOptionID: "q1a"},
			},
			wantScore: 1, wantTotal: 6, wantPercentage: 16.67, wantAnswers: 1,
		},
		{
			name:      "first answer per question counts",
			questions: questions,
			answers: []SubmittedAnswer{
				{QuestionID: "q3", SelectedOptionID: "q3b"},
				{QuestionID: "q3", SelectedOptionID: "q3a"},
			},
			wantScore: 0, wantTotal: 6, wantPercentage: 0, wantAnswers: 1,
		},
		{
			name:      "option of another question earns nothing",
			questions: questions,
			answers:   []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "q3a"}},
			wantScore: 0, wantTotal: 6, wantAnswers: 1,
		},
		{
			name:      "skipped question",
			questions: questions,
			answers:   []SubmittedAnswer{{QuestionID: "q1"}},
			wantScore: 0, wantTotal: 6, wantAnswers: 1,
		},
		{name: "empty quiz", wantTotal: 0, wantPercentage: 0, wantPassed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GradeAttempt(tt.questions, tt.answers)
			assert.Equal(t, tt.wantScore, g.Score)
			assert.Equal(t, tt.wantTotal, g.Total)
			assert.Equal(t, tt.wantPercentage, g.Percentage)
			assert.Equal(t, tt.wantPassed, g.Passed)
			assert.Len(t, g.Answers, tt.wantAnswers)
		})
	}
}

func TestGradeAttempt_answers(t *testing.T) {
	questions := []Question{{ID: "q1", Points: 1, Options: []Option{{ID: "a"}, {ID: "b", IsCorrect: true}}}}

	g := GradeAttempt(questions, []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "lol"}})
	if assert.Len(t, g.Answers, 1) {
		assert.Equal(t, "q1", g.Answers[0].QuestionID)
		assert.Nil(t, g.Answers[0].SelectedOptionID, "unknown options are not recorded")
	}

	g = GradeAttempt(questions, []SubmittedAnswer{{QuestionID: "q1", SelectedOptionID: "b"}})
	if assert.Len(t, g.Answers, 1) && assert.NotNil(t, g.Answers[0].SelectedOptionID) {
		assert.Equal(t, "b", *g.Answers[0].SelectedOptionID)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 12.5, Percentage(1, 8))
	assert.Equal(t, 14.29, Percentage(1, 7))
	assert.Equal(t, 100.0, Percentage(7, 7))
}
