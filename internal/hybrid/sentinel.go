// Package hybrid implements the web-to-file fast path: browse, synthesize
// via the LLM, write one file, preserving any sentinel-delimited analysis
// block byte-for-byte across the synthesis step.
package hybrid

import (
	"regexp"
	"strings"
)

// The sentinel literals are part of the external contract with web
// collaborators. Do not generalize them.
const (
	SentinelStart = "!!DETAILED_ANALYSIS_SECTION_START!!"
	SentinelEnd   = "!!DETAILED_ANALYSIS_SECTION_END!!"
)

// detailedAnalysisHeading is the heading a synthesized draft uses when it
// already carries the preserved section.
const detailedAnalysisHeading = "Detailed Analysis from Top Sources"

// ExtractDetailed splits content into the first sentinel-delimited block
// (inclusive of both sentinels) and the remainder with that block removed.
// Only the first occurrence is extracted; with no sentinel pair present
// the block is empty and the remainder is the input unchanged.
func ExtractDetailed(content string) (preserved, remainder string) {
	start := strings.Index(content, SentinelStart)
	if start < 0 {
		return "", content
	}
	end := strings.Index(content[start+len(SentinelStart):], SentinelEnd)
	if end < 0 {
		return "", content
	}
	endAbs := start + len(SentinelStart) + end + len(SentinelEnd)
	return content[start:endAbs], content[:start] + content[endAbs:]
}

// PreserveDetailedAnalysis carries any sentinel-delimited block from a
// previous artifact forward into next, verbatim, when next lost it. It
// serves re-synthesis of a document over an existing one; Runner.Run does
// not call it and splices the block taken from the browsed content itself.
func PreserveDetailedAnalysis(previous, next string) string {
	block, _ := ExtractDetailed(previous)
	if block == "" {
		return next
	}
	if strings.Contains(next, SentinelStart) || strings.Contains(next, detailedAnalysisHeading) {
		return next
	}
	return spliceBeforeSources(next, block)
}

var sourcesHeading = regexp.MustCompile(`(?m)^#\s+Sources\b`)

// spliceBeforeSources inserts block immediately before the draft's
// "# Sources" heading, or appends it when no such section exists.
func spliceBeforeSources(draft, block string) string {
	loc := sourcesHeading.FindStringIndex(draft)
	if loc == nil {
		if !strings.HasSuffix(draft, "\n") {
			draft += "\n"
		}
		return draft + "\n" + block + "\n"
	}
	return draft[:loc[0]] + block + "\n\n" + draft[loc[0]:]
}

var urlInText = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// extractURLs returns the http(s) URLs in text, in order, deduplicated
// keep-first.
func extractURLs(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, u := range urlInText.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".,;")
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
