// Package progress merges real upload progress with a time-based ramp into
// one monotonic percentage for long-running commits.
package progress

import "time"

const (
	// UploadShare caps the part of the bar driven by real upload events.
	UploadShare = 30.0
	// RampCeiling is the highest value the ramp reaches before the response.
	RampCeiling = 95.0

	QuestionRampDuration = 3500 * time.Millisecond
	AnswerRampDuration   = 2500 * time.Millisecond
)

type RampState struct {
	Start    time.Time
	Duration time.Duration
	Ceiling  float64
}

// NextProgress is the ramp value at now: linear from 0 at Start to Ceiling
// after Duration, flat afterwards.
func NextProgress(now time.Time, s RampState) float64 {
	elapsed := now.Sub(s.Start)
	if elapsed <= 0 {
		return 0
	}
	if s.Duration <= 0 || elapsed >= s.Duration {
		return s.Ceiling
	}
	return s.Ceiling * float64(elapsed) / float64(s.Duration)
}

// UploadPercent maps transport progress onto the first UploadShare percent.
func UploadPercent(sent, total int64) float64 {
	if total <= 0 || sent <= 0 {
		return 0
	}
	if sent >= total {
		return UploadShare
	}
	return UploadShare * float64(sent) / float64(total)
}
