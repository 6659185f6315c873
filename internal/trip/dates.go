package trip

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const friendlyDateFmt = "Monday Jan 02 2006"

var sentenceSplitRe = regexp.MustCompile(`(?:[.!?])\s+`)

// DateList returns every calendar date from start to end inclusive, in
// YYYY-MM-DD form.
func DateList(startDate, endDate string) ([]string, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format("2006-01-02"))
	}
	return dates, nil
}

// TruncateSummary bounds a generated narrative to maxSentences sentences and
// maxWords words, appending an ellipsis when words are cut.
func TruncateSummary(summary string, maxWords, maxSentences int) string {
	text := strings.TrimSpace(strings.ReplaceAll(summary, "\n", " "))
	if text == "" {
		return text
	}
	var sentences []string
	rest := text
	for len(sentences) < maxSentences {
		loc := sentenceSplitRe.FindStringIndex(rest)
		if loc == nil {
			sentences = append(sentences, rest)
			rest = ""
			break
		}
		sentences = append(sentences, rest[:loc[0]+1])
		rest = rest[loc[1]:]
	}
	truncated := strings.Join(sentences, " ")
	words := strings.Fields(truncated)
	if len(words) > maxWords {
		truncated = strings.Join(words[:maxWords], " ") + "…"
	}
	return truncated
}

func parseISO(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if strings.Contains(value, "T") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FriendlyDate renders a date heading like "Monday Nov 24 2025". Unparsable
// values pass through unchanged.
func FriendlyDate(value string) string {
	t, ok := parseISO(value)
	if !ok {
		return value
	}
	return t.Format(friendlyDateFmt)
}

// FriendlyDateTime renders "Monday Nov 24 2025 at 2:30 PM" style text.
func FriendlyDateTime(value string) string {
	t, ok := parseISO(value)
	if !ok {
		return value
	}
	clock := strings.TrimPrefix(t.Format("03:04 PM"), "0")
	return t.Format(friendlyDateFmt) + " at " + clock
}
