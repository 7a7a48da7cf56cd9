package prompt

import (
	"fmt"
	"strings"
)

// GameMetadataData feeds the per-URL generation prompt.
type GameMetadataData struct {
	URL             string
	IconBaseURL     string
	RelatedCount    int
	PageTitle       string
	PageDescription string
}

func (d GameMetadataData) HasHints() bool {
	return d.PageTitle != "" || d.PageDescription != ""
}

// FallbackGameMetadata builds the same prompt without the template engine.
func FallbackGameMetadata(data GameMetadataData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the following game iframe URL, generate the required JSON data: %s.\n", data.URL)
	b.WriteString("- The GAME_NAME should be the official title of the game.\n")
	b.WriteString("- The SLUG should be a URL-friendly version of the GAME_NAME.\n")
	b.WriteString("- The IFRAME_URL is the provided URL.\n")
	fmt.Fprintf(&b, "- The ICON_URL should be a best-guess based on the game name, in the format: %s/A/{slug}-150x150.webp. Replace 'A' with the first letter of the game name.\n", data.IconBaseURL)
	b.WriteString("- The EXCERPT should be a short, engaging, SEO-friendly paragraph (around 50 words) describing the game. It must be valid HTML, likely wrapped in <p> tags.\n")
	b.WriteString("- The SEO_ARTICLE_FULL should be a comprehensive 500-word article about the game, including its history, gameplay, tips, and why it's popular. Use HTML for formatting (h2, p, ul, li).\n")
	fmt.Fprintf(&b, "- The RELATED_GAMES should be an array of %d other popular game titles that are similar in genre or gameplay.", data.RelatedCount)

	if data.HasHints() {
		b.WriteString("\n\nPage hints scraped from the URL (may be incomplete or misleading):")
		if data.PageTitle != "" {
			fmt.Fprintf(&b, "\n- Page title: %s", data.PageTitle)
		}
		if data.PageDescription != "" {
			fmt.Fprintf(&b, "\n- Page description: %s", data.PageDescription)
		}
	}

	return b.String()
}

// BuildGameMetadata renders the template, falling back to the string builder
// when rendering fails.
func (pb *PromptBuilder) BuildGameMetadata(data GameMetadataData) (string, error) {
	text, err := pb.Render(TemplateGameMetadata, data)
	if err != nil {
		return FallbackGameMetadata(data), err
	}
	return strings.TrimRight(text, "\n"), nil
}
