// Package parser extracts structured fields from free text using pattern
// rules only. Every parser here is total and deterministic: identical input
// always yields identical output, and unmatched text produces an "unknown"
// result instead of an error, so callers can cheaply check confidence before
// paying for a model call.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Clock times are matched in 12-hour form with the meridiem on either side of
// the digits ("8pm", "8:30 p.m.", "pm 8") and in bare 24-hour form ("20:00").
var (
	clock12After  = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(a\.?m\.?|p\.?m\.?)`)
	clock12Before = regexp.MustCompile(`(?i)\b(a\.?m\.?|p\.?m\.?)\s*(\d{1,2})(?::(\d{2}))?\b`)
	clock24       = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

// clockMatch is one recognized time with its byte offset in the source text.
type clockMatch struct {
	minutes int // minutes since midnight
	pos     int
}

func (m clockMatch) hhmm() string {
	return fmt.Sprintf("%02d:%02d", m.minutes/60, m.minutes%60)
}

func to24(hour, minute int, meridiem string) (int, bool) {
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, false
	}
	if hour == 12 {
		hour = 0
	}
	if strings.HasPrefix(strings.ToLower(meridiem), "p") {
		hour += 12
	}
	return hour*60 + minute, true
}

// findClockTimes returns every clock time in text, ordered by position.
// Overlapping 24-hour matches inside a 12-hour match are suppressed.
func findClockTimes(text string) []clockMatch {
	var matches []clockMatch
	covered := make([][2]int, 0, 4)

	for _, idx := range clock12After.FindAllStringSubmatchIndex(text, -1) {
		hour, _ := strconv.Atoi(text[idx[2]:idx[3]])
		minute := 0
		if idx[4] >= 0 {
			minute, _ = strconv.Atoi(text[idx[4]:idx[5]])
		}
		if mins, ok := to24(hour, minute, text[idx[6]:idx[7]]); ok {
			matches = append(matches, clockMatch{minutes: mins, pos: idx[0]})
			covered = append(covered, [2]int{idx[0], idx[1]})
		}
	}
	for _, idx := range clock12Before.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(covered, idx[0], idx[1]) {
			continue
		}
		hour, _ := strconv.Atoi(text[idx[4]:idx[5]])
		minute := 0
		if idx[6] >= 0 {
			minute, _ = strconv.Atoi(text[idx[6]:idx[7]])
		}
		if mins, ok := to24(hour, minute, text[idx[2]:idx[3]]); ok {
			matches = append(matches, clockMatch{minutes: mins, pos: idx[0]})
			covered = append(covered, [2]int{idx[0], idx[1]})
		}
	}
	for _, idx := range clock24.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(covered, idx[0], idx[1]) {
			continue
		}
		hour, _ := strconv.Atoi(text[idx[2]:idx[3]])
		minute, _ := strconv.Atoi(text[idx[4]:idx[5]])
		matches = append(matches, clockMatch{minutes: hour*60 + minute, pos: idx[0]})
	}

	// Restore text order after mixing match sources.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].pos < matches[j-1].pos; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
	return matches
}

func overlaps(covered [][2]int, start, end int) bool {
	for _, span := range covered {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}

// firstClockAfter returns the first clock time at or after pos.
func firstClockAfter(matches []clockMatch, pos int) (clockMatch, bool) {
	for _, m := range matches {
		if m.pos >= pos {
			return m, true
		}
	}
	return clockMatch{}, false
}
