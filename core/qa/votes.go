package qa

import "time"

// Vote is a user's up or down vote on a question or an answer.
type Vote struct {
	EntityID  string    `json:"-" db:"entity_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	IsUpvote  bool      `json:"is_upvote" db:"is_upvote"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Tally struct {
	Upvotes   int `json:"upvotes" db:"upvotes"`
	Downvotes int `json:"downvotes" db:"downvotes"`
	VoteScore int `json:"vote_score" db:"vote_score"`
}

func NewTally(upvotes, downvotes int) Tally {
	return Tally{Upvotes: upvotes, Downvotes: downvotes, VoteScore: upvotes - downvotes}
}

func TallyVotes(votes []Vote) Tally {
	var up, down int
	for _, v := range votes {
		if v.IsUpvote {
			up++
		} else {
			down++
		}
	}
	return NewTally(up, down)
}

type VoteAction int

const (
	VoteCreate VoteAction = iota
	VoteRemove
	VoteFlip
)

// ResolveVote decides what a click does given the user's current vote:
// no vote creates one, the same direction removes it and the opposite direction flips it.
func ResolveVote(current *Vote, isUpvote bool) VoteAction {
	switch {
	case current == nil:
		return VoteCreate
	case current.IsUpvote == isUpvote:
		return VoteRemove
	default:
		return VoteFlip
	}
}
