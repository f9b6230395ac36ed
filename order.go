package sqlauto

import (
	"slices"
	"strings"
	"time"
)

const (
	// markerLen is the length of the fixed prefix in front of the date token, "sql" by convention.
	markerLen = 3
	// dateLayout is the YYYYMMDD form of the date token.
	dateLayout = "20060102"
	// bootstrapToken is the reserved date token of the init script.
	bootstrapToken = "00000000"
)

// ParseSequenceKey extracts the date token from a filename of the form
// <marker><YYYYMMDD>_<description>.<ext>, for example sql20180912_add_users.sql.
//
// The token is everything between the 3 character marker and the first underscore. A token that
// survives a parse and format round trip is a dated key; the reserved token 00000000 is the
// bootstrap key. Any other filename is not a migration and ok is false.
func ParseSequenceKey(name string) (key SequenceKey, ok bool) {
	stem, _, found := strings.Cut(name, "_")
	if !found || len(stem) <= markerLen {
		return SequenceKey{}, false
	}
	token := stem[markerLen:]
	if date, ok := parseDateToken(token); ok {
		return Dated(date), true
	}
	if token == bootstrapToken {
		return Bootstrap(), true
	}
	return SequenceKey{}, false
}

// parseDateToken parses an 8 digit YYYYMMDD token. The round trip rejects anything a lenient parser
// would normalize, such as month 13 or a trailing character.
func parseDateToken(token string) (time.Time, bool) {
	if len(token) != len(dateLayout) {
		return time.Time{}, false
	}
	date, err := time.Parse(dateLayout, token)
	if err != nil {
		return time.Time{}, false
	}
	if date.Format(dateLayout) != token {
		return time.Time{}, false
	}
	return date, true
}

// Order classifies names and returns them in apply order: bootstrap files first in their input
// order, then dated files ascending by date. Files with the same date keep their input order.
//
// Names without a valid date token are dropped. Ordering an already ordered list returns it
// unchanged.
func Order(names []string) []MigrationFile {
	var bootstrap, dated []MigrationFile
	for _, name := range names {
		key, ok := ParseSequenceKey(name)
		if !ok {
			continue
		}
		file := MigrationFile{Name: name, Key: key}
		switch key.Kind {
		case KindBootstrap:
			bootstrap = append(bootstrap, file)
		case KindDated:
			dated = append(dated, file)
		}
	}
	slices.SortStableFunc(dated, func(a, b MigrationFile) int {
		return a.Key.Date.Compare(b.Key.Date)
	})
	return append(bootstrap, dated...)
}

// skipped returns the names Order would drop, in input order.
func skipped(names []string) []string {
	var out []string
	for _, name := range names {
		if _, ok := ParseSequenceKey(name); !ok {
			out = append(out, name)
		}
	}
	return out
}
