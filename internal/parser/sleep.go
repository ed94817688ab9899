package parser

import (
	"regexp"
	"strconv"
)

var (
	sleepContextRe = regexp.MustCompile(`(?i)\b(slept|sleep|asleep|nap|in bed)\b`)
	sleepHoursRe   = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*(?:hours?|hrs?|h)\b`)
	bedToWakeRe    = regexp.MustCompile(`(?i)\b(went to bed|fell asleep|slept from)\b`)
)

// SleepParse is the structured reading of a sleep report.
type SleepParse struct {
	Hours     float64
	Confident bool
}

// ParseSleepDuration extracts a sleep duration from free text. It accepts an
// explicit hour count ("slept 7.5 hours") or a bed-to-wake window ("went to
// bed at 11pm and woke up at 7am"), projected across midnight. Total: returns
// Confident false rather than failing.
func ParseSleepDuration(text string) SleepParse {
	if !sleepContextRe.MatchString(text) && !bedToWakeRe.MatchString(text) {
		return SleepParse{}
	}

	if m := sleepHoursRe.FindStringSubmatch(text); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil && hours > 0 && hours <= 24 {
			return SleepParse{Hours: hours, Confident: true}
		}
	}

	times := findClockTimes(text)
	if len(times) >= 2 {
		span, ok := WindowMinutes(times[0].hhmm(), times[1].hhmm())
		if ok && span > 0 && span <= 16*60 {
			return SleepParse{Hours: float64(span) / 60, Confident: true}
		}
	}

	return SleepParse{}
}
