package classifier

import (
	"fmt"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// triggerWords must all appear (case-insensitively) for a text to qualify.
var triggerWords = []string{"listed", "spot"}

// Listing flags exchange listing announcements: the text mentions both
// "listed" and "spot" and carries a $-prefixed ticker such as $BTC.
type Listing struct {
	matcher *goahocorasick.Machine
}

func NewListing() (*Listing, error) {
	patterns := lo.Map(triggerWords, func(w string, _ int) []rune {
		return []rune(w)
	})

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build trigger matcher: %w", err)
	}
	return &Listing{matcher: m}, nil
}

func (l *Listing) Classify(text string) Result {
	if text == "" {
		return Result{Classification: ClassificationNone, Reason: ReasonNoText}
	}

	found := l.triggers(strings.ToLower(text))
	missing := lo.Filter(triggerWords, func(w string, _ int) bool {
		return !found[w]
	})
	if len(missing) > 0 {
		reasons := lo.Map(missing, func(w string, _ int) string {
			return fmt.Sprintf("'%s' not found", w)
		})
		return Result{
			Classification: ClassificationNone,
			Reason:         strings.Join(reasons, ", "),
			Missing:        missing,
		}
	}

	// The token comes from the original text so its case survives.
	word, ok := lo.Find(strings.FieldsFunc(text, isSeparator), isTicker)
	if !ok {
		return Result{Classification: ClassificationNone, Reason: ReasonNoToken}
	}

	return Result{Classification: ClassificationMatch, Token: word[1:]}
}

func (l *Listing) triggers(lower string) map[string]bool {
	terms := l.matcher.MultiPatternSearch([]rune(lower), false)
	found := make(map[string]bool, len(terms))
	for _, t := range terms {
		found[string(t.Word)] = true
	}
	return found
}

// isSeparator splits words on Unicode white space and on the ASCII
// file, group, record and unit separators (U+001C to U+001F).
func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// isTicker reports whether word is "$" followed by at least one character.
func isTicker(word string) bool {
	return strings.HasPrefix(word, "$") && len(word) > 1
}
