package dataprocessing

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// regionSuffix matches the "-<digits>" disambiguation markers the
// economic source appends to region names, possibly repeated and
// separated by whitespace.
var regionSuffix = regexp.MustCompile(`(\s*-\d+)+\s*$`)

// CanonicalizeRegion returns the join key for a region name.
// It trims, strips trailing numeric suffixes and upper-cases with Turkish
// casing rules (i becomes İ, ı becomes I). The function is idempotent.
func CanonicalizeRegion(name string) string {
	s := strings.TrimSpace(name)
	s = regionSuffix.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	// Casers carry state, so one is built per call.
	s = cases.Upper(language.Turkish).String(norm.NFC.String(s))
	return norm.NFC.String(s)
}

// missingMarkers are cell texts treated as "no value"
var missingMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"NaN":  true,
	"NAN":  true,
	"null": true,
	"NULL": true,
	"None": true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"<NA>": true,
}

// isMissing reports whether a raw cell holds no usable text
func isMissing(cell string) bool {
	return missingMarkers[strings.TrimSpace(cell)]
}
