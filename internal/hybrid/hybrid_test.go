package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunkencity999/agentic-orchestrator/internal/collab"
	"github.com/sunkencity999/agentic-orchestrator/internal/collab/webstub"
)

type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeFiles struct {
	writes map[string][]byte
	err    error
}

func newFakeFiles() *fakeFiles { return &fakeFiles{writes: map[string][]byte{}} }

func (f *fakeFiles) Write(path string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.writes[path] = data
	return nil
}

func (f *fakeFiles) MkdirAll(string) error { return nil }

func TestExtractDetailed_FirstPairInclusive(t *testing.T) {
	content := "before " + SentinelStart + "ALPHA\nBETA" + SentinelEnd + " after"
	block, remainder := ExtractDetailed(content)
	assert.Equal(t, SentinelStart+"ALPHA\nBETA"+SentinelEnd, block)
	assert.Equal(t, "before  after", remainder)
}

func TestExtractDetailed_NoSentinels(t *testing.T) {
	block, remainder := ExtractDetailed("plain content")
	assert.Empty(t, block)
	assert.Equal(t, "plain content", remainder)
}

func TestExtractDetailed_UnterminatedStart(t *testing.T) {
	content := "text " + SentinelStart + " never closed"
	block, remainder := ExtractDetailed(content)
	assert.Empty(t, block)
	assert.Equal(t, content, remainder)
}

func TestExtractDetailed_OnlyFirstOccurrence(t *testing.T) {
	pair := SentinelStart + "one" + SentinelEnd
	second := SentinelStart + "two" + SentinelEnd
	block, remainder := ExtractDetailed(pair + " mid " + second)
	assert.Equal(t, pair, block)
	assert.Contains(t, remainder, second)
}

func TestDetectStructure(t *testing.T) {
	long := strings.Repeat("filler text ", 100)
	structured := "# Title\n\n## Section\n\n" + long
	assert.True(t, DetectStructure(structured))

	// Headings but too short.
	assert.False(t, DetectStructure("# Title\n\n## Section\n\nbrief"))

	// Long but flat.
	assert.False(t, DetectStructure(long + long))

	// Only a title.
	assert.False(t, DetectStructure("# Title\n\n"+long))
}

func TestPreserveDetailedAnalysis_CarriesBlockForward(t *testing.T) {
	block := SentinelStart + "kept" + SentinelEnd
	previous := "old doc\n" + block + "\nrest"
	next := "# New Doc\n\nbody\n\n# Sources\n- https://a.example\n"

	got := PreserveDetailedAnalysis(previous, next)
	assert.Contains(t, got, block)
	assert.Less(t, strings.Index(got, block), strings.Index(got, "# Sources"))
}

func TestPreserveDetailedAnalysis_NoDoubleInsert(t *testing.T) {
	block := SentinelStart + "kept" + SentinelEnd
	previous := "doc " + block
	next := "new doc already has " + block

	got := PreserveDetailedAnalysis(previous, next)
	assert.Equal(t, 1, strings.Count(got, block))
}

func newTestRunner(llm *fakeLLM, web *webstub.Stub, files *fakeFiles) *Runner {
	return NewRunner(llm, web, files, nil)
}

func TestRunner_SynthesizesAndWrites(t *testing.T) {
	web := webstub.New()
	web.SetDefault(collab.WebResult{
		URL: "https://news.example.com/search",
		Artifacts: map[string]any{
			"full_content": "short unstructured blurb about climate",
		},
	})
	llm := &fakeLLM{response: "# Climate\n\n## Findings\n\ncontent\n"}
	files := newFakeFiles()

	res, err := newTestRunner(llm, web, files).Run(context.Background(),
		"Search for information about climate change and create a summary file")
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "summary.txt", res.Artifacts["filename"])
	assert.Equal(t, "https://news.example.com/search", res.Artifacts["web_url"])
	assert.Equal(t, "news.example.com", res.Artifacts["web_domain"])

	written := string(files.writes["summary.txt"])
	assert.Contains(t, written, "# Climate")
	// The main URL lands in a sources block.
	assert.Contains(t, written, "https://news.example.com/search")
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "climate")
}

func TestRunner_StructuredContentSkipsLLM(t *testing.T) {
	long := strings.Repeat("paragraph text ", 100)
	web := webstub.New()
	web.SetDefault(collab.WebResult{
		URL: "https://example.com/a",
		Artifacts: map[string]any{
			"full_content": "# Ready\n\n## Made\n\n" + long,
		},
	})
	llm := &fakeLLM{response: "should not be used"}
	files := newFakeFiles()

	res, err := newTestRunner(llm, web, files).Run(context.Background(), "check example.com and save a report")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Empty(t, llm.prompts)

	written := string(files.writes["report.txt"])
	assert.Contains(t, written, "# Ready")
}

func TestRunner_SentinelPreservation(t *testing.T) {
	// S4: the block between the sentinels survives synthesis exactly once,
	// before any # Sources heading.
	block := SentinelStart + "\nALPHA\nBETA\n" + SentinelEnd
	web := webstub.New()
	web.SetDefault(collab.WebResult{
		URL: "https://search.example.com",
		Artifacts: map[string]any{
			"full_content": "raw notes\n" + block + "\nmore notes",
		},
	})
	llm := &fakeLLM{response: "# Summary\n\n## Key Points\n\npoints\n\n# Sources\n- https://search.example.com\n"}
	files := newFakeFiles()

	res, err := newTestRunner(llm, web, files).Run(context.Background(),
		"Search for information about climate change and create a summary file")
	require.NoError(t, err)
	require.True(t, res.Success)

	written := string(files.writes["summary.txt"])
	assert.Equal(t, 1, strings.Count(written, "ALPHA\nBETA"))
	assert.Less(t, strings.Index(written, "ALPHA\nBETA"), strings.Index(written, "# Sources"))
	// The LLM never saw the preserved block.
	require.Len(t, llm.prompts, 1)
	assert.NotContains(t, llm.prompts[0], "ALPHA")
}

func TestRunner_PreservedBlockURLCitedOnce(t *testing.T) {
	block := SentinelStart + "\nSee https://deep.example.com/article1 for more.\n" + SentinelEnd
	web := webstub.New()
	web.SetDefault(collab.WebResult{
		URL:       "https://search.example.com",
		Artifacts: map[string]any{"full_content": "notes " + block},
	})
	llm := &fakeLLM{response: "# Doc\n\n## Body\n\ntext\n"}
	files := newFakeFiles()

	res, err := newTestRunner(llm, web, files).Run(context.Background(), "research news and save a summary")
	require.NoError(t, err)
	require.True(t, res.Success)

	written := string(files.writes["summary.txt"])
	assert.Contains(t, written, "https://search.example.com")
	assert.Equal(t, 1, strings.Count(written, "https://deep.example.com/article1"))
}

func TestRunner_BrowseFailureSurfaces(t *testing.T) {
	web := webstub.New()
	web.SetError(errors.New("network down"))
	files := newFakeFiles()

	_, err := newTestRunner(&fakeLLM{}, web, files).Run(context.Background(), "find news and save a summary")
	require.Error(t, err)
	assert.Empty(t, files.writes)
}

func TestRunner_WriteFailureSurfaces(t *testing.T) {
	web := webstub.New()
	web.SetDefault(collab.WebResult{URL: "https://x.example", Artifacts: map[string]any{"full_content": "stuff"}})
	files := newFakeFiles()
	files.err = errors.New("disk full")

	_, err := newTestRunner(&fakeLLM{response: "# A\n\n## B\n\nc"}, web, files).Run(context.Background(), "find news and save a summary")
	require.Error(t, err)
}

func TestAppendSources_SkipsURLsAlreadyCited(t *testing.T) {
	draft := "# Doc\n\n# Sources\n- https://already.example.com\n"
	got := appendSources(draft, "https://already.example.com", "")
	assert.Equal(t, draft, got)
}
