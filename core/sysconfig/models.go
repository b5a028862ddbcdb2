package sysconfig

import (
	"strings"
	"time"

	"github.com/trezcool/mansa/core"
)

// SingletonID is the ID of the only SystemConfig row.
const SingletonID = "global"

type SystemConfig struct {
	BannedWords        []string  `json:"banned_words"`
	AllowRegistration  bool      `json:"allow_registration"`
	RequireApproval    bool      `json:"require_approval"`
	MaintenanceMessage string    `json:"maintenance_message"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Default is the configuration created on first access.
func Default() SystemConfig {
	return SystemConfig{
		BannedWords:       []string{},
		AllowRegistration: true,
	}
}

// UpdateConfig defines what information may be provided to modify the SystemConfig.
type UpdateConfig struct {
	BannedWords        *[]string `json:"banned_words"`
	AllowRegistration  *bool     `json:"allow_registration"`
	RequireApproval    *bool     `json:"require_approval"`
	MaintenanceMessage *string   `json:"maintenance_message" validate:"omitempty,max=1000"`
}

func (uc *UpdateConfig) Validate() error {
	if uc.BannedWords != nil {
		words := CleanWords(*uc.BannedWords)
		uc.BannedWords = &words
	}
	if uc.MaintenanceMessage != nil {
		msg := core.CleanString(*uc.MaintenanceMessage)
		uc.MaintenanceMessage = &msg
	}
	return core.Validate.Struct(uc)
}

type BannedWords struct {
	Words []string `json:"words" validate:"required,dive,max=100"`
}

func (bw *BannedWords) Validate() error {
	bw.Words = CleanWords(bw.Words)
	return core.Validate.Struct(bw)
}

// CleanWords lowers and trims the words, dropping blanks and duplicates.
func CleanWords(words []string) []string {
	seen := make(map[string]bool, len(words))
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(core.CleanString(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		cleaned = append(cleaned, w)
	}
	return cleaned
}
