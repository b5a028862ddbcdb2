package activity

import (
	"encoding/json"
	"time"
)

// Actions
const (
	ActionLogin          = "LOGIN"
	ActionRegister       = "REGISTER"
	ActionCreateLesson   = "CREATE_LESSON"
	ActionCreateQuiz     = "CREATE_QUIZ"
	ActionDeleteQuiz     = "DELETE_QUIZ"
	ActionSubmitQuiz     = "SUBMIT_QUIZ"
	ActionDeleteUser     = "DELETE_USER"
	ActionChangeRole     = "CHANGE_ROLE"
	ActionBlockUser      = "BLOCK_USER"
	ActionUnblockUser    = "UNBLOCK_USER"
	ActionApproveUser    = "APPROVE_USER"
	ActionRejectUser     = "REJECT_USER"
	ActionDeleteContent  = "DELETE_CONTENT"
	ActionUpdateConfig   = "UPDATE_CONFIG"
	ActionSetBannedWords = "SET_BANNED_WORDS"
)

type Log struct {
	ID        string          `json:"id" db:"id"`
	UserID    *string         `json:"user_id" db:"user_id"`
	Action    string          `json:"action" db:"action"`
	Details   json.RawMessage `json:"details" db:"details"`
	IP        string          `json:"ip" db:"ip"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`

	UserName  *string `json:"user_name" db:"user_name"`
	UserEmail *string `json:"user_email" db:"user_email"`
}

type QueryFilter struct {
	Search string // action, user name or user email
	Action string
}
