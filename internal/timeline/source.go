package timeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Source identifies where a ΔT sample came from. The zero value is not a
// valid source.
type Source int

const (
	Historical Source = iota + 1
	AstroProjection
	USNOProjection
	USNORecords
	IERSProjection
	IERSFinal
	Parabola
	Blend
)

var sourceNames = map[Source]string{
	Historical:      "Eclipses and Lunar Occulations",
	AstroProjection: "Astronomical Projection",
	USNOProjection:  "USNO delta T projection",
	USNORecords:     "USNO delta T records",
	IERSProjection:  "IERS UT1-UTC projection",
	IERSFinal:       "IERS UT1-UTC",
	Parabola:        "Parabola",
	Blend:           "IERS UT1-UTC projection + Astronomical projection",
}

// String returns the human-readable source name used in exports.
func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// Label returns the source name with its qualifier appended, e.g.
// "IERS UT1-UTC I".
func (s Source) Label(qualifier string) string {
	if qualifier == "" {
		return s.String()
	}
	return s.String() + " " + qualifier
}

// Precedence is the order in which observed and projected inputs are merged.
// A later source overwrites any day written by an earlier one. Parabola and
// Blend are derived after the merge and are not part of this list.
func Precedence() []Source {
	return []Source{Historical, AstroProjection, USNOProjection, USNORecords, IERSProjection, IERSFinal}
}

// Rank returns the position of s in Precedence, or -1 for derived sources.
func (s Source) Rank() int {
	for i, p := range Precedence() {
		if p == s {
			return i
		}
	}
	return -1
}

// normalizeQualifier canonicalizes a free-form qualifier read from an input
// file ("I", " p ", ...).
func normalizeQualifier(q string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(q)))
}
