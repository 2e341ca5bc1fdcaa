package compose

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidKeyword reports a search keyword outside the allowed character set.
var ErrInvalidKeyword = errors.New("invalid keyword")

var (
	keywordStrict    = regexp.MustCompile(`^[0-9A-Za-z\p{Hiragana}\p{Katakana}\p{Han}ー]+$`)
	keywordWithSpace = regexp.MustCompile(`^[0-9A-Za-z\p{Hiragana}\p{Katakana}\p{Han}ー ]+$`)
)

// KeywordPolicy is the per-route allow-list for search keywords.
type KeywordPolicy struct {
	// AllowSpace admits single ASCII spaces between words.
	AllowSpace bool
}

// Sanitize normalizes raw and validates it against the policy.
//
// Width variants are folded first (full-width ASCII to ASCII, half-width kana
// to full-width, ideographic space to ASCII space), then surrounding
// whitespace is trimmed. An empty result is valid and means "no search".
// Any other character outside the allow-list yields ErrInvalidKeyword.
func (p KeywordPolicy) Sanitize(raw string) (string, error) {
	kw := strings.TrimSpace(norm.NFKC.String(raw))
	if kw == "" {
		return "", nil
	}

	re := keywordStrict
	if p.AllowSpace {
		kw = strings.Join(strings.Fields(kw), " ")
		re = keywordWithSpace
	}
	if !re.MatchString(kw) {
		return "", ErrInvalidKeyword
	}
	return kw, nil
}

// containsFold reports whether s contains substr, ignoring ASCII case and width variants.
func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(foldKey(s), foldKey(substr))
}

func foldKey(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}
