package classify

import (
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// Extraction is the extractor's verdict: the target filename and the
// semantic content type of whatever the request wants written.
type Extraction struct {
	Filename    string
	ContentType string
}

// contentTypeKeywords is consulted first-match when no filename pattern
// hits; the matching keyword becomes both the content type and the
// synthesized filename stem.
var contentTypeKeywords = []string{
	"essay", "story", "poem", "report", "summary", "letter", "script", "code", "recipe", "note", "document",
}

// filenamePatterns are tried in order; the first submatch wins. All are
// case-insensitive.
var filenamePatterns = []*regexp.Regexp{
	// named "<X>" or named <X>
	regexp.MustCompile(`(?i)\bnamed\s+"([^"]+)"`),
	regexp.MustCompile(`(?i)\bnamed\s+([\w.-]+)`),
	// save (it|this|...) (to|as|in) "<X>"
	regexp.MustCompile(`(?i)\bsave\s+(?:it|this|that|them|the\s+\w+)\s+(?:to|as|in)\s+"([^"]+)"`),
	// save (to|in|as) (a )?(file|document) (named|called) "<X>"
	regexp.MustCompile(`(?i)\bsave\s+(?:to|in|as)\s+(?:a\s+)?(?:file|document)\s+(?:named|called)\s+"([^"]+)"`),
	// (create|write) (a )?(file|document) (named|called) "<X>"
	regexp.MustCompile(`(?i)\b(?:create|write)\s+(?:a\s+)?(?:file|document)\s+(?:named|called)\s+"([^"]+)"`),
	// any double-quoted token
	regexp.MustCompile(`"([^"\s]+)"`),
}

// verbatimToken matches <base>.<ext> with a 2-4 letter extension; a hit is
// used verbatim with no .txt defaulting.
var verbatimToken = regexp.MustCompile(`(?i)^[\w-]+(\.[\w-]+)*\.[a-z]{2,4}$`)

var unquotedFilePatterns = []*regexp.Regexp{
	// file (named|called) <X>, unquoted
	regexp.MustCompile(`(?i)\bfile\s+(?:named|called)\s+([\w.-]+)`),
	// named "<X>" at end of sentence
	regexp.MustCompile(`(?i)\bnamed\s+"([^"]+)"\s*[.!?]?\s*$`),
}

// Extractor derives a filename and content type from a request. The zero
// value is ready to use.
type Extractor struct{}

// Extract applies the ordered filename patterns, then the verbatim-token
// scan, then the unquoted patterns; if nothing matches, it falls back to a
// content-type keyword and synthesizes "<contentType>.txt". A filename
// with no extension gets ".txt" appended unless it was captured verbatim.
func (Extractor) Extract(request string) Extraction {
	contentType := detectContentType(request)

	for _, p := range filenamePatterns {
		if m := p.FindStringSubmatch(request); m != nil {
			name := strings.TrimSpace(m[1])
			name = strings.TrimRight(name, ".!?,;:")
			if name != "" {
				return Extraction{Filename: ensureExtension(name), ContentType: contentType}
			}
		}
	}

	if tok := findVerbatimToken(request); tok != "" {
		return Extraction{Filename: tok, ContentType: contentType}
	}

	for _, p := range unquotedFilePatterns {
		if m := p.FindStringSubmatch(request); m != nil {
			name := strings.TrimRight(strings.TrimSpace(m[1]), ".!?,;:")
			if name != "" {
				return Extraction{Filename: ensureExtension(name), ContentType: contentType}
			}
		}
	}

	return Extraction{Filename: contentType + ".txt", ContentType: contentType}
}

// findVerbatimToken returns the first token shaped like a filename,
// skipping bare domains and anything inside a URL.
func findVerbatimToken(request string) string {
	stripped := urlPattern.ReplaceAllString(request, " ")
	tokens := words.FromString(stripped)
	for tokens.Next() {
		tok := strings.TrimRight(tokens.Value(), ".!?,;:")
		if !strings.Contains(tok, ".") {
			continue
		}
		if !verbatimToken.MatchString(tok) {
			continue
		}
		ext := strings.ToLower(tok[strings.LastIndex(tok, ".")+1:])
		if isDomainTLD(ext) {
			continue
		}
		return tok
	}
	return ""
}

// detectContentType scans the request's words for the first content-type
// keyword; "document" is the default.
func detectContentType(request string) string {
	present := map[string]bool{}
	tokens := words.FromString(strings.ToLower(request))
	for tokens.Next() {
		present[tokens.Value()] = true
	}
	for _, kw := range contentTypeKeywords {
		if present[kw] {
			return kw
		}
	}
	return "document"
}

func ensureExtension(name string) string {
	base := name[strings.LastIndex(name, "/")+1:]
	if strings.Contains(base, ".") {
		return name
	}
	return name + ".txt"
}
