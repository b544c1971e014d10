package predictor

import (
	"regexp"
	"strconv"
	"strings"
)

// Status is the normalized progress classification.
type Status string

const (
	StatusOnTrack       Status = "on-track"
	StatusAtRisk        Status = "at-risk"
	StatusLikelyDelayed Status = "likely-delayed"
	StatusUnknown       Status = "unknown"
)

// Verdict is the structured view of a raw verdict. Numeric fields are -1
// when the reply did not contain them.
type Verdict struct {
	Raw              string
	Status           Status
	Reason           string
	Confidence       int
	HoursMin         float64
	HoursMax         float64
	PercentComplete  int
	PercentRemaining int
}

var (
	statusLine     = regexp.MustCompile(`(?im)status\s*:\s*(.+)$`)
	reasonLine     = regexp.MustCompile(`(?im)reason\s*:\s*(.+)$`)
	confidenceLine = regexp.MustCompile(`(?i)evaluation score\s*:\s*\(?\s*(\d{1,3})`)
	hoursLine      = regexp.MustCompile(`(?i)completion time\s*:\s*(\d+(?:\.\d+)?)\s*(?:(?:-|–|—|to)\s*(\d+(?:\.\d+)?))?\s*h`)
	completionLine = regexp.MustCompile(`(?i)completion\s*:\s*(\d{1,3})\s*%[^,\n]*(?:,\s*(\d{1,3})\s*%)?`)
)

// ParseVerdict extracts structured fields from a verdict. It never fails;
// missing fields keep their unknown values.
func ParseVerdict(raw string) Verdict {
	v := Verdict{
		Raw:              raw,
		Status:           StatusUnknown,
		Confidence:       -1,
		HoursMin:         -1,
		HoursMax:         -1,
		PercentComplete:  -1,
		PercentRemaining: -1,
	}

	if m := statusLine.FindStringSubmatch(raw); m != nil {
		v.Status = classify(m[1])
	}
	if m := reasonLine.FindStringSubmatch(raw); m != nil {
		v.Reason = strings.TrimSpace(m[1])
	}
	if m := confidenceLine.FindStringSubmatch(raw); m != nil {
		v.Confidence = clampPercent(atoi(m[1]))
	}
	if m := hoursLine.FindStringSubmatch(raw); m != nil {
		v.HoursMin = atof(m[1])
		v.HoursMax = v.HoursMin
		if m[2] != "" {
			v.HoursMax = atof(m[2])
		}
	}
	if m := completionLine.FindStringSubmatch(raw); m != nil {
		v.PercentComplete = clampPercent(atoi(m[1]))
		if m[2] != "" {
			v.PercentRemaining = clampPercent(atoi(m[2]))
		} else {
			v.PercentRemaining = 100 - v.PercentComplete
		}
	}
	return v
}

func classify(s string) Status {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "likely delayed"), strings.Contains(s, "delayed"):
		return StatusLikelyDelayed
	case strings.Contains(s, "risk"):
		return StatusAtRisk
	case strings.Contains(s, "on track"), strings.Contains(s, "on-track"):
		return StatusOnTrack
	default:
		return StatusUnknown
	}
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func clampPercent(n int) int {
	if n > 100 {
		return 100
	}
	return n
}
