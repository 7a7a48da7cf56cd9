package ai

import "google.golang.org/genai"

// GameRecordSchema describes the game record for schema-constrained generation.
func GameRecordSchema() *genai.Schema {
	str := func() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"GAME_NAME":        str(),
			"SLUG":             str(),
			"IFRAME_URL":       str(),
			"ICON_URL":         str(),
			"EXCERPT":          str(),
			"SEO_ARTICLE_FULL": str(),
			"RELATED_GAMES": {
				Type:  genai.TypeArray,
				Items: str(),
			},
		},
		Required: []string{"GAME_NAME", "SLUG", "EXCERPT", "SEO_ARTICLE_FULL", "RELATED_GAMES", "ICON_URL"},
		PropertyOrdering: []string{
			"GAME_NAME", "SLUG", "IFRAME_URL", "ICON_URL", "EXCERPT", "SEO_ARTICLE_FULL", "RELATED_GAMES",
		},
	}
}
