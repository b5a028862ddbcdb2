package qa

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
)

var wordSeparators = regexp.MustCompile(`[\s.,!?;:()\[\]"']+`)

// CheckContent returns a validation error naming the first banned word found in text.
// Words are matched whole and case-insensitively.
func CheckContent(text string, banned []string) error {
	if len(banned) == 0 {
		return nil
	}
	words := make(map[string]struct{})
	for _, w := range wordSeparators.Split(strings.ToLower(text), -1) {
		if w != "" {
			words[w] = struct{}{}
		}
	}
	for _, b := range banned {
		if _, ok := words[strings.ToLower(b)]; ok {
			return core.NewValidationError(errors.Errorf("content contains banned word: %s", b))
		}
	}
	return nil
}
