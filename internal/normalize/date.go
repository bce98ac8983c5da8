// Package normalize turns loosely formatted listing text into canonical values.
// The normalizers never fail: unusable input degrades to a default and the
// result records that it did.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bito/concertworker/internal/concert"
)

// RangeSeparator splits "start~end" period text
const RangeSeparator = "~"

var (
	dateLayouts = []string{
		"2006.01.02",
		"2006-01-02",
		"2006/01/02",
	}

	monthDayPattern = regexp.MustCompile(`^\d{2}\.\d{2}$`)
)

// DateResult is a normalized calendar date
type DateResult struct {
	Value time.Time
	// Defaulted is set when the text could not be parsed and Value is the reference day
	Defaulted bool
}

// Date parses listing date text relative to ref. Only the part before a range
// separator is considered. Month/day text takes the year of ref. Days past the
// end of the month, such as 2025.02.30, are not clamped and count as unparsable.
func Date(text string, ref time.Time) DateResult {
	today := concert.Day(ref)

	text = strings.TrimSpace(text)
	if text == "" {
		return DateResult{Value: today, Defaulted: true}
	}

	if i := strings.Index(text, RangeSeparator); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return DateResult{Value: t}
		}
	}

	if monthDayPattern.MatchString(text) {
		full := strconv.Itoa(ref.Year()) + "." + text
		if t, err := time.Parse(dateLayouts[0], full); err == nil {
			return DateResult{Value: t}
		}
	}

	return DateResult{Value: today, Defaulted: true}
}
