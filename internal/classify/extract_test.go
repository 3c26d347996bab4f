package classify

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract_VerbatimFilenameToken(t *testing.T) {
	got := Extractor{}.Extract("Create a poem about autumn and save it as autumn_poem.txt")
	assert.Equal(t, "autumn_poem.txt", got.Filename)
	assert.Equal(t, "poem", got.ContentType)
}

func TestExtract_NamedQuoted(t *testing.T) {
	got := Extractor{}.Extract(`Write an essay named "climate.md" for me`)
	assert.Equal(t, "climate.md", got.Filename)
	assert.Equal(t, "essay", got.ContentType)
}

func TestExtract_NamedUnquoted(t *testing.T) {
	got := Extractor{}.Extract("generate a file named notes")
	assert.Equal(t, "notes.txt", got.Filename)
}

func TestExtract_SaveItAsQuoted(t *testing.T) {
	got := Extractor{}.Extract(`Summarize this and save it as "summary_v2.md"`)
	assert.Equal(t, "summary_v2.md", got.Filename)
}

func TestExtract_CreateFileCalledQuoted(t *testing.T) {
	got := Extractor{}.Extract(`create a file called "todo.txt" please`)
	assert.Equal(t, "todo.txt", got.Filename)
}

func TestExtract_AnyQuotedToken(t *testing.T) {
	got := Extractor{}.Extract(`put everything into "output.log"`)
	assert.Equal(t, "output.log", got.Filename)
}

func TestExtract_ContentTypeFallback(t *testing.T) {
	cases := []struct {
		request  string
		filename string
		ctype    string
	}{
		{"Search for information about climate change and create a summary file", "summary.txt", "summary"},
		{"Write a story about dragons", "story.txt", "story"},
		{"Compose a letter to the editor", "letter.txt", "letter"},
		{"Make me something nice", "document.txt", "document"},
	}
	for _, tc := range cases {
		got := Extractor{}.Extract(tc.request)
		assert.Equal(t, tc.filename, got.Filename, "request: %s", tc.request)
		assert.Equal(t, tc.ctype, got.ContentType, "request: %s", tc.request)
	}
}

func TestExtract_AppendsTxtWhenNoExtension(t *testing.T) {
	got := Extractor{}.Extract(`save it in a file named "mynotes"`)
	assert.Equal(t, "mynotes.txt", got.Filename)
}

func TestExtract_SkipsDomainsAndURLs(t *testing.T) {
	got := Extractor{}.Extract("Browse techcrunch.com and save a summary")
	assert.Equal(t, "summary.txt", got.Filename)

	got = Extractor{}.Extract("Fetch https://example.com/data.json and write a report")
	assert.Equal(t, "report.txt", got.Filename)
}

func TestExtract_Idempotent(t *testing.T) {
	first := Extractor{}.Extract("Create a poem and save it as autumn_poem.txt")
	reembedded := fmt.Sprintf("Create a file named %q", first.Filename)
	second := Extractor{}.Extract(reembedded)
	assert.Equal(t, first.Filename, second.Filename)
}

func TestExtract_TrailingPunctuationStripped(t *testing.T) {
	got := Extractor{}.Extract("save it as final_draft.txt.")
	assert.Equal(t, "final_draft.txt", got.Filename)
}
