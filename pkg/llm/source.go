package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SourceType distinguishes plain web pages from feeds.
type SourceType string

const (
	SourceTypeURL SourceType = "URL"
	SourceTypeRSS SourceType = "RSS"
)

// SourcePlan is a scraping schedule for one news source.
type SourcePlan struct {
	Title          string     `json:"title"`
	CronExpression string     `json:"cronjob_expression"`
	URL            string     `json:"url"`
	Type           SourceType `json:"type"`
}

const sourceSystemPrompt = `You are an AI assistant that helps configure news source scraping schedules.

Your task is to:
1. Extract or generate a meaningful title for the news source
2. Generate an appropriate cron expression based on the user's timing requirements
3. Determine if the source is a URL (regular website) or RSS (RSS/XML feed)

Source type detection rules:
- If the URL contains "rss", "feed", "xml" or ends with .rss, .xml: type = "RSS"
- If the URL is a regular website/news site: type = "URL"
- Default to "URL" if uncertain

Cron expression rules:
- Parse time from the user prompt (e.g., "06.00" = 6 AM, "18:30" = 6:30 PM)
- If no specific time is mentioned: "0 9 * * *" (daily at 9 AM)
- Common patterns:
  - "every morning at 06.00": "0 6 * * *"
  - "every hour": "0 * * * *"
  - "twice daily": "0 9,18 * * *"
  - "every weekday": "0 9 * * 1-5"
  - "weekly": "0 9 * * 1"

Respond with a JSON object containing exactly these fields:
- "title": a descriptive title for the source
- "cronjob_expression": a valid cron expression matching the requested time
- "url": the provided URL, exactly as given
- "type": either "URL" or "RSS"`

// PlanSource turns a free-form operator prompt plus a URL into a source
// configuration. The URL in the result always matches the input regardless
// of what the model returns.
func (c *Client) PlanSource(ctx context.Context, userPrompt, url string) (SourcePlan, error) {
	user := fmt.Sprintf("User prompt: %q\nURL: %q\n\nPlease generate the source configuration.", userPrompt, url)

	content, err := c.complete(ctx, sourceSystemPrompt, user, 0.1, 1000)
	if err != nil {
		return SourcePlan{}, fmt.Errorf("source planning: %w", err)
	}

	var plan SourcePlan
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &plan); err != nil {
		return SourcePlan{}, fmt.Errorf("source planning: parse model output: %w", err)
	}

	plan.URL = url
	if plan.Type != SourceTypeRSS {
		plan.Type = SourceTypeURL
	}
	if plan.CronExpression == "" {
		plan.CronExpression = "0 9 * * *"
	}
	return plan, nil
}

// FallbackSourcePlan is the deterministic configuration used when the model
// call fails.
func FallbackSourcePlan(url string) SourcePlan {
	return SourcePlan{
		Title:          "News Source - " + url,
		CronExpression: "0 9 * * *",
		URL:            url,
		Type:           SourceTypeURL,
	}
}
