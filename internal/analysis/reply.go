package analysis

import (
	"bytes"
	"encoding/json"
	"strings"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/textutil"
)

const (
	fallbackSummaryChars = 500
	emptyReplySummary    = "No analysis returned"
	fallbackInsight      = "Analysis completed"
	fallbackAction       = "Review the content"
	failedInsight        = "Error in analysis"
	failedAction         = "Check API key and try again"
)

// reply is the parsed form of a raw model response: either structuredReply or
// unstructuredReply.
type reply interface {
	isReply()
}

type structuredReply struct {
	summary  string
	insights []string
	items    []string
}

type unstructuredReply struct {
	raw string
}

func (structuredReply) isReply()   {}
func (unstructuredReply) isReply() {}

// parseReply classifies raw. Only a JSON object carrying all three keys with
// the expected types is structured.
func parseReply(raw string) reply {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFence(raw)), &fields); err != nil {
		return unstructuredReply{raw: raw}
	}

	var parsed structuredReply
	if !decodeField(fields, "summary", &parsed.summary) ||
		!decodeField(fields, "key_insights", &parsed.insights) ||
		!decodeField(fields, "actionable_items", &parsed.items) {
		return unstructuredReply{raw: raw}
	}
	return parsed
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	value, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return false
	}
	return json.Unmarshal(value, dst) == nil
}

// stripFence removes one Markdown code fence wrapping the whole reply.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return trimmed
	}
	body := strings.TrimSuffix(trimmed, "```")
	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return trimmed
	}
	return strings.TrimSpace(body[newline+1:])
}

// normalize converts either reply variant into the stored analysis shape.
func normalize(r reply, raw string) domain.Analysis {
	switch v := r.(type) {
	case structuredReply:
		summary := v.summary
		if strings.TrimSpace(summary) == "" {
			summary = fallbackSummary(raw)
		}
		return domain.Analysis{
			Summary:         summary,
			KeyInsights:     nonNil(v.insights),
			ActionableItems: nonNil(v.items),
		}
	case unstructuredReply:
		return domain.Analysis{
			Summary:         fallbackSummary(v.raw),
			KeyInsights:     []string{fallbackInsight},
			ActionableItems: []string{fallbackAction},
		}
	default:
		return normalize(unstructuredReply{raw: raw}, raw)
	}
}

func fallbackSummary(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return emptyReplySummary
	}
	return textutil.Truncate(raw, fallbackSummaryChars)
}

// failedAnalysis is stored when the inference call itself fails.
func failedAnalysis(err error) domain.Analysis {
	return domain.Analysis{
		Summary:         "Analysis failed: " + err.Error(),
		KeyInsights:     []string{failedInsight},
		ActionableItems: []string{failedAction},
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
