package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveVote(t *testing.T) {
	up, down := &Vote{IsUpvote: true}, &Vote{IsUpvote: false}
	tests := []struct {
		name     string
		current  *Vote
		isUpvote bool
		want     VoteAction
	}{
		{"no vote, up", nil, true, VoteCreate},
		{"no vote, down", nil, false, VoteCreate},
		{"up then up", up, true, VoteRemove},
		{"down then down", down, false, VoteRemove},
		{"up then down", up, false, VoteFlip},
		{"down then up", down, true, VoteFlip},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveVote(tc.current, tc.isUpvote))
		})
	}
}

func TestTallyVotes(t *testing.T) {
	assert.Equal(t, Tally{}, TallyVotes(nil))
	votes := []Vote{{IsUpvote: true}, {IsUpvote: true}, {IsUpvote: false}, {IsUpvote: true}}
	assert.Equal(t, Tally{Upvotes: 3, Downvotes: 1, VoteScore: 2}, TallyVotes(votes))
	assert.Equal(t, -2, TallyVotes([]Vote{{}, {}}).VoteScore)
}

func TestCheckContent(t *testing.T) {
	banned := []string{"spam", "Scam"}
	tests := []struct {
		text  string
		clean bool
	}{
		{"Is this a SPAM question?", false},
		{"what a (scam)", false},
		{"spam.", false},
		{"spammer are not banned words", true},
		{"antiscam measures", true},
		{"", true},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			err := CheckContent(tc.text, banned)
			if tc.clean {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	assert.NoError(t, CheckContent("spam", nil))
}
