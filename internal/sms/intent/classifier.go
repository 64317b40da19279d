// internal/sms/intent/classifier.go
package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification is deterministic keyword and pattern matching; no model is
// consulted. The table below is an explicit priority list: patterns are tested
// in declaration order within an intent, and intents in declaration order
// against each other, so the first match wins outright. Reordering entries
// changes behavior.
type intentSpec struct {
	intent   Intent
	patterns []*regexp.Regexp
	keywords []string
}

const (
	regexBaseConfidence   = 0.7
	keywordBaseConfidence = 0.3
	keywordBonus          = 0.1
	maxConfidence         = 0.95
	numericConfidence     = 0.5
)

var (
	pagePattern    = regexp.MustCompile(`(?i)\bpage\s+(\d+)\b`)
	pagesPattern   = regexp.MustCompile(`(?i)\b(\d+)\s+pages?\b`)
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
	numericPattern = regexp.MustCompile(`^\d+$`)
)

var intentTable = []intentSpec{
	{
		intent: IntentUpdateProgress,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:i(?:'m| am)?\s+)?(?:on|at)\s+page\s+\d+`),
			pagePattern,
			pagesPattern,
			percentPattern,
			regexp.MustCompile(`(?i)^progress\b`),
		},
		keywords: []string{"page", "pages", "percent", "progress", "read"},
	},
	{
		intent: IntentStartBook,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^start(?:ing|ed)?\s+(?:reading\s+)?(.+)$`),
			regexp.MustCompile(`(?i)^begin\s+(?:reading\s+)?(.+)$`),
			regexp.MustCompile(`(?i)^(?:i(?:'m| am)\s+)?reading\s+(.+)$`),
		},
		keywords: []string{"start", "begin", "new book"},
	},
	{
		intent: IntentFinishBook,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^finish(?:ed)?\s*(?:reading\s+|with\s+)?(.*)$`),
			regexp.MustCompile(`(?i)^done\s*(?:with\s+)?(.*)$`),
			regexp.MustCompile(`(?i)^completed?\s*(.*)$`),
		},
		keywords: []string{"finish", "finished", "done", "complete", "completed"},
	},
	{
		intent: IntentGetStatus,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^status\b`),
			regexp.MustCompile(`(?i)^where\s+am\s+i\b`),
			regexp.MustCompile(`(?i)^current\s+book\b`),
			regexp.MustCompile(`(?i)^how\s+far\b`),
		},
		keywords: []string{"status", "current", "far along"},
	},
	{
		intent: IntentListReading,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^list\b`),
			regexp.MustCompile(`(?i)^(?:my\s+)?books\b`),
			regexp.MustCompile(`(?i)^what\s+am\s+i\s+reading\b`),
			regexp.MustCompile(`(?i)^currently\s+reading\b`),
		},
		keywords: []string{"list", "books", "shelf"},
	},
	{
		intent: IntentSearchBook,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^search\s+(?:for\s+)?(.+)$`),
			regexp.MustCompile(`(?i)^find\s+(?:me\s+)?(.+)$`),
			regexp.MustCompile(`(?i)^look\s*up\s+(.+)$`),
		},
		keywords: []string{"search", "find", "lookup"},
	},
	{
		intent: IntentGetStats,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^stat(?:istic)?s\b`),
			regexp.MustCompile(`(?i)^how\s+many\s+(?:books|pages)\b`),
			regexp.MustCompile(`(?i)^my\s+stats\b`),
		},
		keywords: []string{"stats", "statistics", "total"},
	},
	{
		intent: IntentHelp,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^help\b`),
			regexp.MustCompile(`(?i)^commands\b`),
			regexp.MustCompile(`^\?+$`),
		},
		keywords: []string{"help", "commands", "usage"},
	},
}

// Classify maps raw message text to an intent with extracted parameters and a
// confidence score. It is total and deterministic: the same input always
// produces the same result, and unmatched input yields IntentUnknown rather
// than an error.
func Classify(rawText string) Result {
	trimmed := strings.TrimSpace(rawText)
	if trimmed == "" {
		return Result{Intent: IntentUnknown, Confidence: 0, RawMessage: rawText}
	}

	lower := strings.ToLower(trimmed)

	// Pass 1: ordered regex table, first match wins.
	for _, spec := range intentTable {
		for _, pattern := range spec.patterns {
			m := pattern.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			params := extractParameters(spec.intent, trimmed, m)
			confidence := scoreConfidence(regexBaseConfidence, spec.keywords, lower)
			return Result{
				Intent:     spec.intent,
				Confidence: confidence,
				Parameters: params,
				RawMessage: rawText,
			}
		}
	}

	// Pass 2: a bare number reads as a page update at reduced confidence.
	if numericPattern.MatchString(trimmed) {
		if page, err := strconv.Atoi(trimmed); err == nil {
			return Result{
				Intent:     IntentUpdateProgress,
				Confidence: numericConfidence,
				Parameters: Parameters{PageNumber: &page},
				RawMessage: rawText,
			}
		}
	}

	// Pass 3: keyword substring fallback, again in declaration order.
	for _, spec := range intentTable {
		matched := 0
		for _, kw := range spec.keywords {
			if strings.Contains(lower, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		confidence := keywordBaseConfidence + keywordBonus*float64(matched-1)
		if confidence > maxConfidence {
			confidence = maxConfidence
		}
		return Result{
			Intent:     spec.intent,
			Confidence: confidence,
			Parameters: extractParameters(spec.intent, trimmed, nil),
			RawMessage: rawText,
		}
	}

	return Result{Intent: IntentUnknown, Confidence: 0.1, RawMessage: rawText}
}

// scoreConfidence adds the keyword bonus on top of a base score: each of the
// intent's keywords found in the text raises certainty a step, capped well
// below 1 so the classifier never claims to be sure.
func scoreConfidence(base float64, keywords []string, lower string) float64 {
	confidence := base
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			confidence += keywordBonus
		}
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

func extractParameters(matched Intent, text string, submatch []string) Parameters {
	var params Parameters

	switch matched {
	case IntentUpdateProgress:
		if m := pagePattern.FindStringSubmatch(text); m != nil {
			if page, err := strconv.Atoi(m[1]); err == nil {
				params.PageNumber = &page
			}
		} else if m := pagesPattern.FindStringSubmatch(text); m != nil {
			if page, err := strconv.Atoi(m[1]); err == nil {
				params.PageNumber = &page
			}
		}
		if m := percentPattern.FindStringSubmatch(text); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct >= 0 && pct <= 100 {
				params.PercentComplete = &pct
			}
		}

	case IntentStartBook, IntentFinishBook:
		if len(submatch) > 1 {
			params.BookTitle = cleanTitle(submatch[1])
		}

	case IntentSearchBook:
		if len(submatch) > 1 {
			params.Query = cleanTitle(submatch[1])
		}
	}

	return params
}

// cleanTitle trims whitespace and surrounding quote characters from a captured
// free-text title or query.
func cleanTitle(raw string) string {
	trimmed := strings.TrimSpace(raw)
	return strings.Trim(trimmed, `"'` + "“”‘’")
}
