// Package slug derives human-readable project keys from titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallback = "proje"

var (
	spaces   = regexp.MustCompile(`\s+`)
	nonWord  = regexp.MustCompile(`[^a-z0-9_\-]+`)
	dashes   = regexp.MustCompile(`-{2,}`)
	dotlessI = strings.NewReplacer("ı", "i")
)

// Make lower-cases s with Turkish rules, folds diacritics to ASCII and keeps
// only letters, digits, underscores and single dashes.
func Make(s string) string {
	s = cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	s = dotlessI.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = spaces.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix returns Make(title) followed by the base-36 millisecond
// timestamp of now, which keeps repeated titles distinct.
func WithSuffix(title string, now time.Time) string {
	base := Make(title)
	if base == "" {
		base = fallback
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 36)
}
