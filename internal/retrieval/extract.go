package retrieval

import (
	"regexp"
	"strings"
)

// Limits bounds the size of an extracted passage.
type Limits struct {
	MaxSentences     int
	MaxChars         int
	MaxCharsPriority int
}

// DefaultLimits mirrors the configuration defaults.
func DefaultLimits() Limits {
	return Limits{MaxSentences: 8, MaxChars: 1000, MaxCharsPriority: 1500}
}

// phonePattern matches UK-style helpline numbers such as "0345 604 6473",
// with or without the internal spaces.
var phonePattern = regexp.MustCompile(`\b0\d{3}\s?\d{3}\s?\d{4}\b|\b\d{4}\s?\d{3}\s?\d{4}\b`)

// categoryRule boosts sentence selection for one question category.
// Supplementary vocabulary pulls in sentences the raw keywords would
// miss, like the sentence carrying a helpline number in a contact
// question. Priority categories get the larger character cap.
type categoryRule struct {
	name     string
	triggers []string
	vocab    []string
	phone    bool
	priority bool
}

// categoryRules is ordered; the first rule whose trigger appears in the
// query applies. Pest and complaint come first because their queries
// often also contain "claim" or "cover".
var categoryRules = []categoryRule{
	{
		name:     "pest",
		triggers: []string{"termite", "pest", "infestation", "vermin", "insect"},
		vocab:    []string{"pest", "infestation", "vermin", "insect", "gradual", "exclusion", "not covered", "excluded"},
		priority: true,
	},
	{
		name:     "complaint",
		triggers: []string{"complaint", "complain", "dissatisfied", "unhappy", "ombudsman"},
		vocab:    []string{"complaint", "ombudsman", "resolve", "procedure", "write to"},
		phone:    true,
		priority: true,
	},
	{
		name:     "claim",
		triggers: []string{"claim"},
		vocab:    []string{"claim", "notify", "report", "as soon as", "helpline"},
		phone:    true,
		priority: true,
	},
	{
		name:     "contact",
		triggers: []string{"contact", "phone", "telephone", "call", "number", "email"},
		vocab:    []string{"contact", "telephone", "call", "line", "helpline", "email"},
		phone:    true,
	},
}

// Extractor trims retrieved chunks down to the sentences that answer
// the question, instead of returning raw chunk text.
type Extractor struct {
	limits Limits
}

// NewExtractor creates an extractor with the given limits; zero fields
// fall back to defaults.
func NewExtractor(limits Limits) *Extractor {
	def := DefaultLimits()
	if limits.MaxSentences <= 0 {
		limits.MaxSentences = def.MaxSentences
	}
	if limits.MaxChars <= 0 {
		limits.MaxChars = def.MaxChars
	}
	if limits.MaxCharsPriority <= 0 {
		limits.MaxCharsPriority = def.MaxCharsPriority
	}
	return &Extractor{limits: limits}
}

// Extract returns the passage of content most relevant to the query.
// It selects sentences containing query keywords, widened by category
// vocabulary when the query matches a known category, and falls back
// to a context window around the first keyword hit, then to a plain
// prefix, so it never returns an empty passage for non-empty content.
func (e *Extractor) Extract(content, query string, keywords []string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	queryLower := strings.ToLower(query)
	rule := matchCategory(queryLower)

	maxChars := e.limits.MaxChars
	if rule != nil && rule.priority {
		maxChars = e.limits.MaxCharsPriority
	}

	sentences := splitSentences(content)
	selected := selectSentences(sentences, keywords, rule, e.limits.MaxSentences)
	if len(selected) > 0 {
		return truncate(strings.Join(selected, " "), maxChars)
	}

	if window := keywordWindow(content, keywords); window != "" {
		return truncate(window, maxChars)
	}

	// Nothing matched at sentence or substring level; return a prefix so
	// the caller still has something to show. The prefix obeys the same
	// cap as every other path.
	runes := []rune(content)
	if len(runes) > 800 {
		return truncate(string(runes[:800])+"...", maxChars)
	}
	return truncate(content, maxChars)
}

func matchCategory(queryLower string) *categoryRule {
	for i := range categoryRules {
		if matchesAny(queryLower, categoryRules[i].triggers) {
			return &categoryRules[i]
		}
	}
	return nil
}

// splitSentences breaks content first on newlines, then on terminal
// punctuation, because policy documents mix prose with line-oriented
// lists. Terminators stay attached to their sentence.
func splitSentences(content string) []string {
	var sentences []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var b strings.Builder
		for _, r := range line {
			b.WriteRune(r)
			if r == '.' || r == '!' || r == '?' {
				if s := strings.TrimSpace(b.String()); s != "" {
					sentences = append(sentences, s)
				}
				b.Reset()
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// selectSentences keeps sentences in document order that contain a query
// keyword, a category vocabulary term, or a helpline number when the
// category cares about phone numbers.
func selectSentences(sentences, keywords []string, rule *categoryRule, maxSentences int) []string {
	var selected []string
	for _, s := range sentences {
		if len(selected) >= maxSentences {
			break
		}
		sLower := strings.ToLower(s)
		keep := matchesAny(sLower, keywords)
		if !keep && rule != nil {
			keep = matchesAny(sLower, rule.vocab)
			if !keep && rule.phone {
				keep = phonePattern.MatchString(s)
			}
		}
		if keep {
			selected = append(selected, s)
		}
	}
	return selected
}

// keywordWindow returns the text surrounding the first keyword occurrence,
// 300 runes of leading and 500 of trailing context.
func keywordWindow(content string, keywords []string) string {
	contentLower := strings.ToLower(content)
	for _, kw := range keywords {
		at := strings.Index(contentLower, kw)
		if at < 0 {
			continue
		}
		runeAt := len([]rune(contentLower[:at]))
		runes := []rune(content)
		start := runeAt - 300
		if start < 0 {
			start = 0
		}
		end := runeAt + 500
		if end > len(runes) {
			end = len(runes)
		}
		return strings.TrimSpace(string(runes[start:end]))
	}
	return ""
}

// truncate cuts text at maxChars runes, preferring to end on a sentence
// boundary when one falls in the second half of the budget.
func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := runes[:maxChars]
	for i := len(cut) - 1; i > maxChars/2; i-- {
		if cut[i] == '.' {
			return string(cut[:i+1])
		}
	}
	return string(cut) + "..."
}
