package scraper

// ArticleMetadata carries fetch-time facts about an article.
type ArticleMetadata struct {
	PageTitle string `json:"page_title"`
	FetchTime string `json:"fetch_time"`
	WordCount int    `json:"word_count"`
}

// Article is one scraped news article. HTMLContent holds the cleaned HTML
// fragment, TextContent the normalized plain text. Date and Author are empty
// until the extraction agent fills them.
type Article struct {
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	HTMLContent string          `json:"html_content"`
	TextContent string          `json:"text_content"`
	Date        string          `json:"date,omitempty"`
	Author      string          `json:"author,omitempty"`
	Metadata    ArticleMetadata `json:"metadata"`
}
