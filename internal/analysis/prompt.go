package analysis

import "fmt"

const promptTemplate = `Analyze the following web content and provide:
1. A concise summary (2-3 sentences)
2. Key insights (3-5 bullet points)
3. Actionable items (2-3 specific actions the reader could take)

Content:
%s

Respond in JSON format with exactly these keys:
{
  "summary": "string",
  "key_insights": ["string", "..."],
  "actionable_items": ["string", "..."]
}`

// BuildPrompt embeds already truncated content into the fixed instruction.
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptTemplate, content)
}
