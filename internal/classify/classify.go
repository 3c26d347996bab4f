// Package classify decides the shape of an incoming request (direct file
// creation, pure web browsing, hybrid web-to-file, or planner-bound
// complex) and extracts the target filename and content type from
// natural-language text.
package classify

import (
	"regexp"
	"strings"

	"github.com/clipperhouse/uax29/v2/words"
)

// Shape is the classifier's verdict on a request.
type Shape string

const (
	ShapeDirectFile Shape = "direct_file"
	ShapeWebOnly    Shape = "web_only"
	ShapeHybrid     Shape = "hybrid"
	ShapeComplex    Shape = "complex"
)

// Signal sets. These are the classifier's configuration: ordered rules
// consult them, they contain no control flow of their own.
var (
	webVerbs      = []string{"search", "find", "look up", "browse", "visit", "go to", "research", "open", "check"}
	newsNouns     = []string{"news", "headlines", "article"}
	temporalWords = []string{"latest", "current", "today"}

	fileVerbs = []string{"save", "write", "store", "create", "generate", "compile", "draft", "compose"}
	fileNouns = []string{"file", "document", "report", "summary", "story", "poem", "essay", "note", "analysis"}

	creationVerbs = []string{"create", "write", "generate", "draft", "compose"}

	// TLDs recognized when a bare domain appears without a scheme.
	domainTLDs = []string{"com", "org", "net", "edu", "gov", "io", "ai", "co.uk", "co"}

	urlPattern      = regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://\S+`)
	namedPhrase     = regexp.MustCompile(`(?i)\bnamed\s+\S`)
	sequencingWords = []string{"and then", "after that", "first", "second", "third"}
)

var domainPattern = regexp.MustCompile(`(?i)\b[a-z0-9-]+(\.[a-z0-9-]+)*\.([a-z]{2,6})(\.[a-z]{2})?\b`)

// Signals is the per-request evidence the rule table consults.
type Signals struct {
	Web          bool // URL, bare domain, web verb, news noun, or temporal qualifier
	File         bool // file-output verb, noun, or "named <X>" phrase
	Creation     bool // a creation verb is present
	ActionVerbs  int  // distinct action verbs (web + file sets)
	Sequencing   bool // explicit step markers ("and then", "first", ...)
	NamedOutputs int  // tokens that look like output filenames
}

// MultiStep reports whether the request reads as a multi-step job: three
// or more distinct action verbs, explicit sequencing, or two named output
// files.
func (s Signals) MultiStep() bool {
	return s.ActionVerbs >= 3 || s.Sequencing || s.NamedOutputs >= 2
}

// Rule is one ordered classification rule: the first rule whose Match
// returns true decides the shape.
type Rule struct {
	Name  string
	Match func(Signals) (Shape, bool)
}

// DefaultRules is the ordered rule table the engine ships with. Exposed so
// tests can inject a modified table.
func DefaultRules() []Rule {
	return []Rule{
		// A request stacking three or more distinct actions, explicit step
		// markers, or two named outputs wants a plan, not a single handler,
		// even when it also carries hybrid markers.
		{Name: "hybrid", Match: func(s Signals) (Shape, bool) {
			return ShapeHybrid, s.Web && s.File && !s.MultiStep()
		}},
		{Name: "direct-file", Match: func(s Signals) (Shape, bool) {
			return ShapeDirectFile, s.Creation && s.File && !s.Web && !s.MultiStep()
		}},
		{Name: "web-only", Match: func(s Signals) (Shape, bool) {
			return ShapeWebOnly, s.Web && !s.File && !s.MultiStep()
		}},
		{Name: "complex", Match: func(s Signals) (Shape, bool) {
			return ShapeComplex, s.ActionVerbs >= 2 || s.Sequencing || s.NamedOutputs >= 2
		}},
		{Name: "fallback", Match: func(s Signals) (Shape, bool) {
			switch {
			case s.Creation:
				return ShapeDirectFile, true
			case s.Web:
				return ShapeWebOnly, true
			default:
				return ShapeComplex, true
			}
		}},
	}
}

// Classifier is a total function from request text to Shape, backed by an
// ordered rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: DefaultRules()}
}

// NewClassifierWithRules builds a classifier over a custom rule table.
func NewClassifierWithRules(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify never fails: the final rule is a catch-all, so every request
// gets a shape. Misclassification is recovered by handler fallbacks, not
// here.
func (c *Classifier) Classify(request string) Shape {
	s := ExtractSignals(request)
	for _, rule := range c.rules {
		if shape, ok := rule.Match(s); ok {
			return shape
		}
	}
	return ShapeComplex
}

// ExtractSignals scans the request once and records all evidence the rule
// table needs.
func ExtractSignals(request string) Signals {
	lower := strings.ToLower(request)
	padded := " " + lower + " "

	var s Signals

	if urlPattern.MatchString(request) || hasBareDomain(lower) {
		s.Web = true
	}
	for _, v := range webVerbs {
		if containsWord(padded, v) {
			s.Web = true
			break
		}
	}
	if !s.Web {
		for _, n := range append(append([]string{}, newsNouns...), temporalWords...) {
			if containsWord(padded, n) {
				s.Web = true
				break
			}
		}
	}

	for _, v := range fileVerbs {
		if containsWord(padded, v) {
			s.File = true
			break
		}
	}
	if !s.File {
		for _, n := range fileNouns {
			if containsWord(padded, n) {
				s.File = true
				break
			}
		}
	}
	if !s.File && namedPhrase.MatchString(request) {
		s.File = true
	}

	for _, v := range creationVerbs {
		if containsWord(padded, v) {
			s.Creation = true
			break
		}
	}

	verbSet := map[string]bool{}
	for _, v := range append(append([]string{}, webVerbs...), fileVerbs...) {
		if containsWord(padded, v) {
			verbSet[v] = true
		}
	}
	s.ActionVerbs = len(verbSet)

	for _, m := range sequencingWords {
		if containsWord(padded, m) {
			s.Sequencing = true
			break
		}
	}

	s.NamedOutputs = countFilenameTokens(request)

	return s
}

// containsWord reports whether padded (a lowercased request wrapped in
// spaces) contains phrase at a word boundary. Punctuation counts as a
// boundary.
func containsWord(padded, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(padded[idx:], phrase)
		if i < 0 {
			return false
		}
		i += idx
		before := padded[i-1]
		afterIdx := i + len(phrase)
		after := byte(' ')
		if afterIdx < len(padded) {
			after = padded[afterIdx]
		}
		if isBoundary(before) && isBoundary(after) {
			return true
		}
		idx = i + 1
	}
}

func isBoundary(b byte) bool {
	return !(b >= 'a' && b <= 'z' || b >= '0' && b <= '9')
}

// hasBareDomain reports whether the text contains label(.label)+ with a
// TLD from the fixed allow-list. The host of a scheme:// URL matches too;
// URLs are counted separately and already mark the text as web.
func hasBareDomain(lower string) bool {
	for _, m := range domainPattern.FindAllString(lower, -1) {
		parts := strings.Split(m, ".")
		if len(parts) < 2 {
			continue
		}
		tld := parts[len(parts)-1]
		compound := ""
		if len(parts) >= 3 {
			compound = parts[len(parts)-2] + "." + tld
		}
		for _, allowed := range domainTLDs {
			if tld == allowed || compound == allowed {
				return true
			}
		}
	}
	return false
}

// countFilenameTokens counts tokens shaped like output filenames
// (<base>.<ext>, ext 2-4 letters) that are not bare domains or parts of a
// URL. Token scanning uses Unicode word segmentation so punctuation-heavy
// requests split correctly.
func countFilenameTokens(request string) int {
	stripped := urlPattern.ReplaceAllString(request, " ")

	count := 0
	seen := map[string]bool{}
	tokens := words.FromString(stripped)
	for tokens.Next() {
		tok := strings.ToLower(tokens.Value())
		if !strings.Contains(tok, ".") {
			continue
		}
		if !filenameToken.MatchString(tok) {
			continue
		}
		ext := tok[strings.LastIndex(tok, ".")+1:]
		if isDomainTLD(ext) {
			continue
		}
		if !seen[tok] {
			seen[tok] = true
			count++
		}
	}
	return count
}

var filenameToken = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*\.[a-z]{2,4}$`)

func isDomainTLD(ext string) bool {
	for _, t := range domainTLDs {
		if ext == t {
			return true
		}
	}
	return false
}
