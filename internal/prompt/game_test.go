package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildGameMetadataMatchesFallback(t *testing.T) {
	builder := NewPromptBuilder()

	cases := []GameMetadataData{
		{URL: "https://a.com/g1", IconBaseURL: "https://cdn.example/thumbs", RelatedCount: 3},
		{URL: "https://a.com/g2", IconBaseURL: "https://cdn.example/thumbs", RelatedCount: 3, PageTitle: "Moto X3M - Play Online"},
		{URL: "https://a.com/g3", IconBaseURL: "https://cdn.example/thumbs", RelatedCount: 3, PageTitle: "T", PageDescription: "Bike racing"},
	}

	for _, data := range cases {
		got, err := builder.BuildGameMetadata(data)
		require.NoError(t, err)
		assert.Equal(t, FallbackGameMetadata(data), got)
	}
}

func TestBuildGameMetadataContent(t *testing.T) {
	got, err := NewPromptBuilder().BuildGameMetadata(GameMetadataData{
		URL:             "https://a.com/moto",
		IconBaseURL:     "https://cdn.example/thumbs",
		RelatedCount:    3,
		PageDescription: "Bike racing",
	})
	require.NoError(t, err)

	assert.Contains(t, got, "generate the required JSON data: https://a.com/moto.")
	assert.Contains(t, got, "https://cdn.example/thumbs/A/{slug}-150x150.webp")
	assert.Contains(t, got, "an array of 3 other popular game titles")
	assert.Contains(t, got, "- Page description: Bike racing")
	assert.NotContains(t, got, "Page title")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := NewPromptBuilder().Render(TemplateName("missing.tmpl"), nil)
	assert.Error(t, err)
}
