// Package univ handles the academic side of account verification: deciding
// whether an email belongs to a university, and mapping an email domain to a
// human-readable university name.
package univ

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// academicSuffixes are the email domain endings accepted for verification.
var academicSuffixes = []string{".ac.kr", ".edu"}

// universityNames maps a known email domain to its display name. Unknown
// domains fall back to synthesis from the first domain label.
var universityNames = map[string]string{
	"snu.ac.kr":     "서울대학교",
	"yonsei.ac.kr":  "연세대학교",
	"korea.ac.kr":   "고려대학교",
	"kaist.ac.kr":   "한국과학기술원",
	"postech.ac.kr": "포항공과대학교",
	"hanyang.ac.kr": "한양대학교",
}

// nameLocales are the locales the synthesized fallback supports; arbitrary
// caller tags are matched onto one of them, defaulting to Korean.
var nameLocales = language.NewMatcher([]language.Tag{language.Korean, language.English})

// IsAcademicEmail reports whether email ends in an accepted academic domain
// suffix (.ac.kr or .edu). The check is a plain suffix match on the address;
// anything more (MX lookup, allowlists) is out of scope.
func IsAcademicEmail(email string) bool {
	for _, suf := range academicSuffixes {
		if strings.HasSuffix(email, suf) {
			return true
		}
	}
	return false
}

// Domain extracts the domain part of an email address. Returns "" when the
// address has no '@'.
func Domain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return email[i+1:]
}

// NameForDomain resolves an email domain to a university display name.
// Known domains come from the lookup table and always use their recorded
// name. Anything else synthesizes a name from the first domain label in the
// locale closest to tag: "foo.ac.kr" yields "foo대학교" under Korean tags
// and "Foo University" under English ones.
func NameForDomain(domain string, tag language.Tag) string {
	if name, ok := universityNames[domain]; ok {
		return name
	}
	label, _, _ := strings.Cut(domain, ".")
	if _, idx, _ := nameLocales.Match(tag); idx == 1 {
		return cases.Title(language.English).String(label) + " University"
	}
	return label + "대학교"
}

// NameForEmail is a convenience wrapper combining Domain and NameForDomain.
func NameForEmail(email string, tag language.Tag) string {
	return NameForDomain(Domain(email), tag)
}
