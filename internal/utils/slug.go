package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	germanFolds  = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	whitespaceRE = regexp.MustCompile(`\s+`)
	reservedRE   = regexp.MustCompile("[:/?#\\[\\]@!$&'()*+,;=<>\"{}|\\\\^~`]")
	dashRunRE    = regexp.MustCompile(`-+`)
)

// Slugify turns a display name into a stable URL slug.
//
// German umlauts and ß are transliterated first; remaining diacritics are
// dropped (é -> e). Whitespace becomes "-", URL-reserved characters are
// removed, dash runs collapse and leading/trailing dashes are trimmed.
//
//	Slugify("Mensa am Zoo (Halle)")     // "mensa-am-zoo-halle"
//	Slugify("Café Universitätsplatz")   // "cafe-universitaetsplatz"
func Slugify(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = germanFolds.Replace(s)
	s = stripMarks(s)
	s = whitespaceRE.ReplaceAllString(s, "-")
	s = reservedRE.ReplaceAllString(s, "")
	s = dashRunRE.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
