package hybrid

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/errs"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

// previewLength is how much of the written document surfaces in the
// content_preview artifact.
const previewLength = 200

// Runner is the web-to-file fast path: browse, synthesize, write one
// file. Collaborators are injected; the runner owns only the flow.
type Runner struct {
	LLM    collab.LLM
	Web    collab.Web
	Files  collab.Files
	Logger logger.Logger

	extractor classify.Extractor
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(llm collab.LLM, web collab.Web, files collab.Files, log logger.Logger) *Runner {
	return &Runner{LLM: llm, Web: web, Files: files, Logger: log}
}

// Run executes the hybrid path for a request. On success the result
// carries the filename, content_preview, web_url, and web_domain
// artifacts. A browse, synthesis, or write failure returns an error so
// the caller can apply the direct-file fallback; Run never retries.
func (r *Runner) Run(ctx context.Context, request string) (task.Result, error) {
	web, err := r.Web.Browse(ctx, request)
	if err != nil {
		return task.Result{}, errs.NewHandlerError("", "web browse failed", err)
	}

	content := webContent(web)
	preserved, trimmed := ExtractDetailed(content)

	draft := trimmed
	if !DetectStructure(trimmed) {
		draft, err = r.LLM.Complete(ctx, synthesisPrompt(request, trimmed, preserved != ""))
		if err != nil {
			return task.Result{}, errs.NewHandlerError("", "synthesis failed", err)
		}
	}

	if preserved != "" && !strings.Contains(draft, detailedAnalysisHeading) && !strings.Contains(draft, SentinelStart) {
		draft = spliceBeforeSources(draft, preserved)
	}

	draft = appendSources(draft, web.URL, preserved)

	extraction := r.extractor.Extract(request)
	if err := r.Files.Write(extraction.Filename, []byte(draft)); err != nil {
		return task.Result{}, errs.NewHandlerError("", fmt.Sprintf("write %s failed", extraction.Filename), err)
	}

	if r.Logger != nil {
		r.Logger.LogInfo(fmt.Sprintf("hybrid run wrote %s (%d bytes)", extraction.Filename, len(draft)))
	}

	return task.Result{
		Success: true,
		Artifacts: map[string]any{
			"filename":        extraction.Filename,
			"content_preview": preview(draft),
			"web_url":         web.URL,
			"web_domain":      domainOf(web.URL),
		},
	}, nil
}

// webContent picks the richest text the browse produced: full_content
// when present, else a stitch of headlines, preview, and source URL.
func webContent(w collab.WebResult) string {
	if full, ok := w.Artifacts["full_content"].(string); ok && full != "" {
		return full
	}
	if w.Content != "" {
		return w.Content
	}

	var sb strings.Builder
	for _, h := range w.Headlines {
		sb.WriteString("- " + h + "\n")
	}
	if previewText, ok := w.Artifacts["content_preview"].(string); ok && previewText != "" {
		sb.WriteString("\n" + previewText + "\n")
	}
	if w.URL != "" {
		sb.WriteString("\nSource: " + w.URL + "\n")
	}
	return sb.String()
}

// synthesisPrompt instructs the LLM to produce a structured markdown
// document from the browsed content.
func synthesisPrompt(request, content string, hadDetailedSection bool) string {
	var sb strings.Builder
	sb.WriteString("The user asked: " + request + "\n\n")
	sb.WriteString("Using the browsed content below, write a well-organized markdown document. ")
	sb.WriteString("Start with a title heading, use section headings for each topic, and end with a '# Sources' list that enumerates the actual source article URLs, not just the search URL.")
	if hadDetailedSection {
		sb.WriteString(" If a 'Detailed Analysis from Top Sources' section exists, preserve it verbatim.")
	}
	sb.WriteString("\n\nBrowsed content:\n\n")
	sb.WriteString(content)
	return sb.String()
}

// appendSources adds a Sources: block listing the main URL plus any URL
// found in the preserved block, skipping URLs the draft already cites so
// only one sources section carries each link.
func appendSources(draft, mainURL, preserved string) string {
	var urls []string
	if mainURL != "" {
		urls = append(urls, mainURL)
	}
	urls = append(urls, extractURLs(preserved)...)

	var missing []string
	seen := map[string]bool{}
	for _, u := range urls {
		if seen[u] || strings.Contains(draft, u) {
			continue
		}
		seen[u] = true
		missing = append(missing, u)
	}
	if len(missing) == 0 {
		return draft
	}

	var sb strings.Builder
	sb.WriteString(draft)
	if !strings.HasSuffix(draft, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\nSources:\n")
	for _, u := range missing {
		sb.WriteString("- " + u + "\n")
	}
	return sb.String()
}

func preview(content string) string {
	if len(content) <= previewLength {
		return content
	}
	return content[:previewLength]
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}
