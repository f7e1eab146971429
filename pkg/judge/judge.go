// Package judge defines the vision-language capability that answers a
// yes/no question about a single image.
package judge

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/papercomputeco/glimpse/pkg/imageio"
)

// ErrJudge is returned when a judge backend call fails.
var ErrJudge = errors.New("judge failed")

// Judge asks a generative model about one image.
type Judge interface {
	// Ask sends prompt together with img and returns the model's free-text answer.
	Ask(ctx context.Context, prompt string, img *imageio.Image) (string, error)
}

// IsAffirmative reports whether response contains the word "yes",
// case-insensitively. "Yes.", "yes, it is" and "**YES**" count; "eyes" does not.
func IsAffirmative(response string) bool {
	words := strings.FieldsFunc(strings.ToLower(response), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if w == "yes" {
			return true
		}
	}
	return false
}
