// Package dispatch routes a task to its typed handler and normalizes the
// handler's output into a task.Result. Handlers receive immutable task
// snapshots; they never touch store state and never retry.
package dispatch

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sunkencity999/agentic-orchestrator/internal/classify"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/logger"
	"github.com/sunkencity999/agentic-orchestrator/internal/task"
)

const previewLength = 200

// Dispatcher maps task types to handlers over the injected collaborators.
type Dispatcher struct {
	LLM    collab.LLM
	Web    collab.Web
	Vision collab.Vision
	Files  collab.Files
	Logger logger.Logger

	// DocumentsDir is the base the file_creation handler reports absolute
	// filenames against.
	DocumentsDir string

	extractor classify.Extractor
}

// Dispatch routes by task type. Failures come back as an unsuccessful
// Result, never a panic; an unknown type is itself a failure. prior holds
// the merged artifacts of the task's completed dependencies so a
// file-creation step can build on upstream content.
func (d *Dispatcher) Dispatch(ctx context.Context, t task.Task, prior map[string]any) task.Result {
	if err := ctx.Err(); err != nil {
		return failure("cancelled")
	}

	switch t.Type {
	case task.TypeFileCreation:
		return d.fileCreation(ctx, t, prior)
	case task.TypeWebBrowsing:
		return d.webBrowsing(ctx, t)
	case task.TypeImageAnalysis:
		return d.imageAnalysis(ctx, t)
	case task.TypeGeneral:
		return d.general(ctx, t)
	default:
		return failure(fmt.Sprintf("unknown task type %q", t.Type))
	}
}

// fileCreation asks the LLM for document content and writes it under the
// documents directory. Upstream artifacts (browsed content, analyses)
// become source material for the prompt.
func (d *Dispatcher) fileCreation(ctx context.Context, t task.Task, prior map[string]any) task.Result {
	extraction := d.extractor.Extract(t.Description)
	filename := t.StringParam("filename")
	if filename == "" {
		filename = extraction.Filename
	}

	prompt := d.fileCreationPrompt(t.Description, prior)
	content, err := d.LLM.Complete(ctx, prompt)
	if err != nil {
		return failure(fmt.Sprintf("content generation failed: %v", err))
	}
	if strings.TrimSpace(content) == "" {
		return failure("content generation returned nothing")
	}

	if err := d.Files.Write(filename, []byte(content)); err != nil {
		return failure(fmt.Sprintf("write %s failed: %v", filename, err))
	}

	if d.Logger != nil {
		d.Logger.LogDebug(fmt.Sprintf("wrote %s (%d bytes)", filename, len(content)))
	}

	return task.Result{
		Success: true,
		Artifacts: map[string]any{
			"filename":        filepath.Join(d.DocumentsDir, filename),
			"file_type":       extraction.ContentType,
			"content_preview": preview(content),
		},
	}
}

func (d *Dispatcher) fileCreationPrompt(description string, prior map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Produce the full content for this request. Output only the document body, no commentary.\n\nRequest: ")
	sb.WriteString(description)

	if material := priorMaterial(prior); material != "" {
		sb.WriteString("\n\nUse this source material gathered in earlier steps:\n\n")
		sb.WriteString(material)
	}
	return sb.String()
}

// priorMaterial stitches the content-bearing artifact values of completed
// dependencies into prompt context, in a stable key order.
func priorMaterial(prior map[string]any) string {
	if len(prior) == 0 {
		return ""
	}
	keys := make([]string, 0, len(prior))
	for k := range prior {
		switch {
		case strings.HasSuffix(k, "full_content"),
			strings.HasSuffix(k, "content_preview"),
			strings.HasSuffix(k, "analysis"),
			strings.HasSuffix(k, "message"):
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		if v, ok := prior[k].(string); ok && v != "" {
			fmt.Fprintf(&sb, "--- %s ---\n%s\n\n", k, v)
		}
	}
	return strings.TrimSpace(sb.String())
}

func (d *Dispatcher) webBrowsing(ctx context.Context, t task.Task) task.Result {
	query := t.StringParam("query")
	if query == "" {
		query = t.Description
	}

	res, err := d.Web.Browse(ctx, query)
	if err != nil {
		return failure(fmt.Sprintf("web browse failed: %v", err))
	}

	artifacts := map[string]any{
		"url":    res.URL,
		"domain": domainOf(res.URL),
	}
	if len(res.Headlines) > 0 {
		artifacts["headlines"] = res.Headlines
	}
	if res.Content != "" {
		artifacts["content_preview"] = preview(res.Content)
		artifacts["full_content"] = res.Content
	}
	// Collaborator-provided artifacts win over derived ones.
	for k, v := range res.Artifacts {
		artifacts[k] = v
	}

	return task.Result{Success: true, Artifacts: artifacts}
}

func (d *Dispatcher) imageAnalysis(ctx context.Context, t task.Task) task.Result {
	imagePath := t.StringParam("image_path")
	if imagePath == "" {
		return failure("image_path parameter is required")
	}

	analysis, err := d.Vision.Analyze(ctx, imagePath, t.StringParam("prompt"))
	if err != nil {
		return failure(fmt.Sprintf("image analysis failed: %v", err))
	}

	return task.Result{
		Success: true,
		Artifacts: map[string]any{
			"image_path": imagePath,
			"analysis":   analysis,
		},
	}
}

func (d *Dispatcher) general(ctx context.Context, t task.Task) task.Result {
	out, err := d.LLM.Complete(ctx, t.Description)
	if err != nil {
		return failure(fmt.Sprintf("completion failed: %v", err))
	}
	return task.Result{
		Success:   true,
		Artifacts: map[string]any{"message": out},
	}
}

func failure(msg string) task.Result {
	return task.Result{Success: false, Error: msg}
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
