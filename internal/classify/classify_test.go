package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_DirectFile(t *testing.T) {
	c := NewClassifier()
	cases := []string{
		"Create a poem about autumn and save it as autumn_poem.txt",
		"Write a story about dragons",
		"Generate a report named quarterly.txt",
		"Draft an essay on renewable energy",
	}
	for _, req := range cases {
		assert.Equal(t, ShapeDirectFile, c.Classify(req), "request: %s", req)
	}
}

func TestClassifier_WebOnly(t *testing.T) {
	c := NewClassifier()
	cases := []string{
		"Search for information about climate change",
		"Look up the latest headlines",
		"Visit example.com",
		"Check https://news.ycombinator.com for updates",
	}
	for _, req := range cases {
		assert.Equal(t, ShapeWebOnly, c.Classify(req), "request: %s", req)
	}
}

func TestClassifier_Hybrid(t *testing.T) {
	c := NewClassifier()
	cases := []string{
		"Search for information about climate change and create a summary file",
		"Browse the latest AI news and save it as ai_news.txt",
		// URL plus a save verb is hybrid, not web-only
		"Fetch https://example.com/page and save the contents",
		// creation verb plus a bare domain is hybrid
		"Create a summary of techcrunch.com",
	}
	for _, req := range cases {
		assert.Equal(t, ShapeHybrid, c.Classify(req), "request: %s", req)
	}
}

func TestClassifier_Complex(t *testing.T) {
	c := NewClassifier()
	cases := []string{
		"Research AI papers, summarize them, find images of the top 3, and compile a report",
		"First research the market, and then write a summary, after that compile the findings",
		"Write intro.txt and conclusion.txt for the thesis",
	}
	for _, req := range cases {
		assert.Equal(t, ShapeComplex, c.Classify(req), "request: %s", req)
	}
}

func TestClassifier_IsTotal(t *testing.T) {
	c := NewClassifier()
	for _, req := range []string{"", "hello", "what is the meaning of life", "???"} {
		shape := c.Classify(req)
		assert.Contains(t, []Shape{ShapeDirectFile, ShapeWebOnly, ShapeHybrid, ShapeComplex}, shape)
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifierWithRules([]Rule{
		{Name: "always-web", Match: func(Signals) (Shape, bool) { return ShapeWebOnly, true }},
	})
	assert.Equal(t, ShapeWebOnly, c.Classify("Create a poem"))
}

func TestExtractSignals_WebDetection(t *testing.T) {
	assert.True(t, ExtractSignals("visit https://example.com").Web)
	assert.True(t, ExtractSignals("go to wikipedia.org").Web)
	assert.True(t, ExtractSignals("what are today's headlines").Web)
	assert.False(t, ExtractSignals("write a poem about the sea").Web)
}

func TestExtractSignals_BareDomainNeedsAllowedTLD(t *testing.T) {
	assert.True(t, ExtractSignals("summarize bbc.co.uk").Web)
	// .xyz is not in the allow-list
	assert.False(t, ExtractSignals("summarize something.xyz for me").Web)
}

func TestExtractSignals_FileDetection(t *testing.T) {
	assert.True(t, ExtractSignals("save the output").File)
	assert.True(t, ExtractSignals("a summary would be great").File)
	assert.True(t, ExtractSignals("call it named thing").File)
	assert.False(t, ExtractSignals("look up the weather").File)
}

func TestExtractSignals_ActionVerbCount(t *testing.T) {
	s := ExtractSignals("research the topic, find sources, and compile them")
	assert.GreaterOrEqual(t, s.ActionVerbs, 3)

	s = ExtractSignals("search for cats")
	assert.Equal(t, 1, s.ActionVerbs)
}

func TestExtractSignals_NamedOutputsSkipsDomainsAndURLs(t *testing.T) {
	s := ExtractSignals("save intro.txt and outro.md from https://example.com/data.json on cnn.com")
	assert.Equal(t, 2, s.NamedOutputs)
}

func TestExtractSignals_Sequencing(t *testing.T) {
	assert.True(t, ExtractSignals("do this and then do that").Sequencing)
	assert.True(t, ExtractSignals("First, gather the data").Sequencing)
	assert.False(t, ExtractSignals("firstly gather the data").Sequencing)
}
