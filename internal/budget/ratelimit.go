// Package budget handles LLM CLI rate limits: parsing reset times out of
// CLI error output and waiting them out with periodic countdown
// notifications.
package budget

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LimitType distinguishes session (5h) from weekly limits.
type LimitType string

const (
	LimitTypeSession LimitType = "session"
	LimitTypeWeekly  LimitType = "weekly"
	LimitTypeUnknown LimitType = "unknown"
)

// RateLimitInfo contains parsed rate limit details.
type RateLimitInfo struct {
	DetectedAt  time.Time
	ResetAt     time.Time // When limit resets
	WaitSeconds int64
	LimitType   LimitType
	RawMessage  string
	Source      string // "output" or "error"
}

// TimeUntilReset calculates duration until the rate limit resets.
func (r *RateLimitInfo) TimeUntilReset() time.Duration {
	if r.ResetAt.IsZero() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// IsExpired checks if the rate limit has already expired.
func (r *RateLimitInfo) IsExpired() bool {
	if r.ResetAt.IsZero() {
		return true
	}
	return time.Now().After(r.ResetAt)
}

var (
	// "Claude AI usage limit reached|<unix_timestamp>", the claude CLI's
	// machine-readable form.
	unixTimestampPattern = regexp.MustCompile(`usage limit reached\|(\d+)`)

	// "limit will reset at 2pm (America/New_York)"
	humanTimePattern = regexp.MustCompile(`limit will reset at (\d+)(am|pm)\s*\(([^)]+)\)`)

	// "resets 1am (Europe/Dublin)", the newer claude CLI wording.
	resetsTimePattern = regexp.MustCompile(`resets\s+(\d+)(am|pm)\s*\(([^)]+)\)`)

	// "retry in 300 seconds" / "retry after 300s"
	retrySecondsPattern = regexp.MustCompile(`retry (?:in|after)\s+(\d+)\s*(?:seconds?|s)`)

	// Generic rate limit indicators.
	rateLimitIndicator = regexp.MustCompile(`(?i)(out of.*usage|rate.?limit|usage.?limit|429|too.?many.?requests)`)
)

// ParseRateLimitFromOutput parses rate limit info from CLI stdout/stderr.
// Returns nil when the output does not look like a rate limit message.
func ParseRateLimitFromOutput(output string) *RateLimitInfo {
	if output == "" {
		return nil
	}
	if !rateLimitIndicator.MatchString(output) {
		return nil
	}

	info := &RateLimitInfo{
		DetectedAt: time.Now(),
		RawMessage: output,
		Source:     "output",
		LimitType:  LimitTypeUnknown,
	}

	// Most specific first: an explicit unix timestamp.
	if matches := unixTimestampPattern.FindStringSubmatch(output); len(matches) > 1 {
		if ts, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			info.ResetAt = time.Unix(ts, 0)
			info.WaitSeconds = info.ResetAt.Unix() - time.Now().Unix()
			info.LimitType = inferLimitType(info.WaitSeconds)
			return info
		}
	}

	// A wall-clock reset time with timezone, in either CLI wording.
	for _, p := range []*regexp.Regexp{humanTimePattern, resetsTimePattern} {
		if matches := p.FindStringSubmatch(output); len(matches) > 3 {
			if resetAt, ok := parseClockReset(matches[1], matches[2], matches[3]); ok {
				info.ResetAt = resetAt
				info.WaitSeconds = int64(time.Until(resetAt).Seconds())
				info.LimitType = inferLimitType(info.WaitSeconds)
				return info
			}
		}
	}

	// A relative retry hint.
	if matches := retrySecondsPattern.FindStringSubmatch(output); len(matches) > 1 {
		if seconds, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			info.WaitSeconds = seconds
			info.ResetAt = time.Now().Add(time.Duration(seconds) * time.Second)
			info.LimitType = inferLimitType(seconds)
			return info
		}
	}

	// Structured API error bodies.
	if jsonInfo := tryParseJSON(output); jsonInfo != nil {
		jsonInfo.DetectedAt = info.DetectedAt
		jsonInfo.Source = info.Source
		jsonInfo.RawMessage = info.RawMessage
		return jsonInfo
	}

	// Rate limited with no parseable reset: infer the window boundary.
	info.ResetAt = InferResetTime()
	info.WaitSeconds = int64(time.Until(info.ResetAt).Seconds())
	info.LimitType = LimitTypeSession
	return info
}

// ParseRateLimitFromError parses rate limit info from error messages.
func ParseRateLimitFromError(errMsg string) *RateLimitInfo {
	if errMsg == "" {
		return nil
	}
	info := ParseRateLimitFromOutput(errMsg)
	if info != nil {
		info.Source = "error"
	}
	return info
}

// parseClockReset turns ("2", "pm", "America/New_York") into the next
// occurrence of that wall-clock hour in that timezone.
func parseClockReset(hourStr, meridiem, tzName string) (time.Time, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return time.Time{}, false
	}
	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.UTC
	}

	now := time.Now().In(loc)
	resetAt := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if resetAt.Before(now) {
		resetAt = resetAt.Add(24 * time.Hour)
	}
	return resetAt, true
}

// InferResetTime calculates reset time when not explicitly provided,
// using the 5-hour billing window floored to an hour boundary.
func InferResetTime() time.Time {
	now := time.Now()
	flooredNow := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())

	// Next 5-hour boundary (0, 5, 10, 15, 20), wrapping past midnight.
	nextWindow := (flooredNow.Hour()/5)*5 + 5
	if nextWindow >= 24 {
		nextWindow = 0
		flooredNow = flooredNow.Add(24 * time.Hour)
	}

	return time.Date(flooredNow.Year(), flooredNow.Month(), flooredNow.Day(), nextWindow, 0, 0, 0, flooredNow.Location())
}

// inferLimitType classifies waits longer than six hours as weekly limits.
func inferLimitType(waitSeconds int64) LimitType {
	const sixHoursInSeconds = 6 * 60 * 60

	if waitSeconds <= 0 {
		return LimitTypeUnknown
	}
	if waitSeconds > sixHoursInSeconds {
		return LimitTypeWeekly
	}
	return LimitTypeSession
}

// tryParseJSON attempts to extract rate limit info from JSON or JSONL.
func tryParseJSON(data string) *RateLimitInfo {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(data), &obj); err == nil {
		return extractFromJSONObject(obj)
	}

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := json.Unmarshal([]byte(line), &obj); err == nil {
			if info := extractFromJSONObject(obj); info != nil {
				return info
			}
		}
	}
	return nil
}

// extractFromJSONObject extracts rate limit info from a parsed JSON
// object with "error" and optional "retry_after" fields.
func extractFromJSONObject(obj map[string]interface{}) *RateLimitInfo {
	errorField, hasError := obj["error"]
	retryAfter, hasRetryAfter := obj["retry_after"]

	isRateLimit := false
	if hasError {
		if errStr, ok := errorField.(string); ok {
			lower := strings.ToLower(errStr)
			isRateLimit = strings.Contains(errStr, "429") ||
				strings.Contains(lower, "rate_limit") ||
				strings.Contains(lower, "rate limit")
		}
	}
	if !isRateLimit {
		return nil
	}

	info := &RateLimitInfo{
		DetectedAt: time.Now(),
		LimitType:  LimitTypeUnknown,
	}

	if hasRetryAfter {
		switch v := retryAfter.(type) {
		case float64:
			info.WaitSeconds = int64(v)
		case int64:
			info.WaitSeconds = v
		case int:
			info.WaitSeconds = int64(v)
		case string:
			if seconds, err := strconv.ParseInt(v, 10, 64); err == nil {
				info.WaitSeconds = seconds
			}
		}
		if info.WaitSeconds > 0 {
			info.ResetAt = time.Now().Add(time.Duration(info.WaitSeconds) * time.Second)
			info.LimitType = inferLimitType(info.WaitSeconds)
			return info
		}
	}

	info.ResetAt = InferResetTime()
	info.WaitSeconds = int64(time.Until(info.ResetAt).Seconds())
	info.LimitType = LimitTypeSession
	return info
}
