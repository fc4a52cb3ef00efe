package catalog

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// FixMojibake repairs text that was UTF-8 on disk but got decoded as
// Latin-1 somewhere upstream ("HipÃ³lito" -> "Hipólito"). The repair is
// a byte round-trip: re-encode as Latin-1 and decode the result as
// UTF-8. If either step fails the input is returned unchanged.
func FixMojibake(s string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}
	if raw == s || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// NormalizeNumber rewrites locale-specific decimal notation into the
// canonical dot form:
//
//	"-38,0056"  -> "-38.0056"   (decimal comma)
//	"1.234,567" -> "1234.567"   (thousands dot + decimal comma)
//
// Anything else passes through unchanged.
func NormalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")
	switch {
	case commas == 1 && dots == 0:
		return strings.Replace(s, ",", ".", 1)
	case commas == 1 && dots == 1:
		s = strings.Replace(s, ".", "", 1)
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

// parseFloat coerces a raw dataset field to a number. Blank fields and
// values that survive normalization without becoming parseable yield
// nil rather than an error: a bad cell degrades one record, not the
// whole load.
func parseFloat(s string) *float64 {
	s = NormalizeNumber(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
