package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ArticleFields is the structured result of extracting one article from
// cleaned HTML.
type ArticleFields struct {
	TextContent string `json:"text_content"`
	Date        string `json:"date"`
	Author      string `json:"author"`
}

const articleSystemPrompt = `You are a web scraping agent specialized in extracting structured article content from web pages in Swedish.

You will be given the CLEANED HTML of a Swedish article as your input. Analyze this HTML and extract:
1. The full article text content, properly identifying main article boundaries (ignoring ads, navigation, etc.)
2. The publication date of the article (in ISO format if possible)
3. The author of the article

For article boundaries:
- Look for content inside <article>, <main>, or div elements with classes containing "article", "content", "body"
- Ignore content in <div> elements that appear to be advertisements, sidebars, or navigation
- Properly extract paragraphs from the main article text, avoiding cut-offs

For dates, look for Swedish patterns like:
- "Publicerad 10 april 2025", "10 apr 2025", "2025-04-10", "10/04/2025", etc.
- Swedish month names: januari, februari, mars, april, maj, juni, juli, augusti, september, oktober, november, december

For authors, look for patterns like:
- "Av [Name]", "Reporter: [Name]", "Text: [Name]", "Skriven av [Name]", etc.
- Also look for author metadata in HTML structure, like <meta name="author">

Respond with a JSON object containing exactly these fields:
- "text_content": the extracted plain text from the main article content only
- "date": the publication date (ISO format preferred, empty string if not found)
- "author": the author name (empty string if not found)`

// ExtractArticle asks the model for the article text, publication date, and
// author hidden in cleanedHTML. Input beyond the token budget is truncated
// first.
func (c *Client) ExtractArticle(ctx context.Context, cleanedHTML string) (ArticleFields, error) {
	input := c.truncateToBudget(cleanedHTML)

	content, err := c.complete(ctx, articleSystemPrompt, input, 0.1, 8000)
	if err != nil {
		return ArticleFields{}, fmt.Errorf("article extraction: %w", err)
	}

	var fields ArticleFields
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &fields); err != nil {
		return ArticleFields{}, fmt.Errorf("article extraction: parse model output: %w", err)
	}
	return fields, nil
}
