package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// FastingAction is what the user wants done with their fast.
type FastingAction string

const (
	FastingStart   FastingAction = "start"
	FastingEnd     FastingAction = "end"
	FastingStatus  FastingAction = "status"
	FastingCancel  FastingAction = "cancel"
	FastingUnknown FastingAction = "unknown"
)

// FastingParse is the structured reading of a fasting-related message.
// FastStart and FastEnd are 24-hour "HH:MM" strings when present.
type FastingParse struct {
	Action    FastingAction
	FastStart string
	FastEnd   string
	Confident bool
}

var (
	lastMealRe  = regexp.MustCompile(`(?i)\b(last meal|last ate|finished (?:eating|dinner)|dinner)\b`)
	firstMealRe = regexp.MustCompile(`(?i)\b(first meal|first ate|broke (?:my|the) fast|breakfast)\b`)
	startFastRe = regexp.MustCompile(`(?i)\b(start|starting|started|begin|beginning)\b.{0,30}\bfast`)
	endFastRe   = regexp.MustCompile(`(?i)\b(end|ended|ending|finish|finished|done|stop|stopped|break|broke)\b.{0,30}\bfast`)
	statusRe    = regexp.MustCompile(`(?i)(how long\b.{0,40}\bfast|fast(ing)? status|am i (still )?fasting|how('s| is) my fast)`)
	cancelRe    = regexp.MustCompile(`(?i)\b(cancel|discard|forget|never ?mind)\b.{0,30}\bfast`)
)

// ParseFastingWindow extracts a fasting action and window from free text.
// It never fails: text that matches no known shape yields action "unknown"
// with Confident false, so callers fall through to a model.
//
// When both a "last meal" and a "first meal" phrase are present, the last-meal
// time is the fast start and the first-meal time is the fast end, with the
// window projected across midnight whenever that is what makes the duration
// positive ("last meal 8pm, first meal 10am" is the 14-hour overnight fast,
// not a negative ten-hour one).
func ParseFastingWindow(text string) FastingParse {
	times := findClockTimes(text)

	if cancelRe.MatchString(text) {
		return FastingParse{Action: FastingCancel, Confident: true}
	}
	if statusRe.MatchString(text) {
		return FastingParse{Action: FastingStatus, Confident: true}
	}

	lastLoc := lastMealRe.FindStringIndex(text)
	firstLoc := firstMealRe.FindStringIndex(text)
	if lastLoc != nil && firstLoc != nil {
		startTime, okStart := firstClockAfter(times, lastLoc[1])
		endTime, okEnd := firstClockAfter(times, firstLoc[1])
		if okStart && okEnd && startTime.pos != endTime.pos {
			return FastingParse{
				Action:    FastingEnd,
				FastStart: startTime.hhmm(),
				FastEnd:   endTime.hhmm(),
				Confident: true,
			}
		}
	}

	if startFastRe.MatchString(text) && !endFastRe.MatchString(text) {
		parse := FastingParse{Action: FastingStart, Confident: true}
		if len(times) > 0 {
			parse.FastStart = times[0].hhmm()
		}
		return parse
	}

	if endFastRe.MatchString(text) {
		parse := FastingParse{Action: FastingEnd, Confident: true}
		switch len(times) {
		case 0:
		case 1:
			parse.FastEnd = times[0].hhmm()
		default:
			parse.FastStart = times[0].hhmm()
			parse.FastEnd = times[1].hhmm()
		}
		return parse
	}

	// A lone "last meal was X" with no other signal still implies the user is
	// reporting a fast start.
	if lastLoc != nil {
		if startTime, ok := firstClockAfter(times, lastLoc[1]); ok {
			return FastingParse{Action: FastingStart, FastStart: startTime.hhmm(), Confident: true}
		}
	}

	return FastingParse{Action: FastingUnknown}
}

// WindowMinutes computes the wall-clock span between two "HH:MM" times,
// projecting across midnight when the end precedes the start. "20:00" to
// "10:00" is 840 minutes.
func WindowMinutes(start, end string) (int, bool) {
	startMins, okStart := hhmmToMinutes(start)
	endMins, okEnd := hhmmToMinutes(end)
	if !okStart || !okEnd {
		return 0, false
	}
	span := endMins - startMins
	if span <= 0 {
		span += 24 * 60
	}
	return span, true
}

func hhmmToMinutes(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, errHour := strconv.Atoi(parts[0])
	minute, errMinute := strconv.Atoi(parts[1])
	if errHour != nil || errMinute != nil {
		return 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
