package retrieval

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// topic maps the trigger vocabulary of one insurance subject to the
// domain terms appended when a query touches it.
type topic struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
	Expand   []string `yaml:"expand"`
}

// defaultTopics is checked in order; only the first matching topic
// contributes expansion terms, keeping expanded queries short.
var defaultTopics = []topic{
	{
		Name:     "pest",
		Triggers: []string{"termite", "termites", "pest", "pests", "infestation", "vermin"},
		Expand:   []string{"pest", "infestation", "vermin", "insect", "damage", "exclusion"},
	},
	{
		Name:     "claim",
		Triggers: []string{"claim", "claims", "claiming"},
		Expand:   []string{"claim", "notify", "report", "helpline", "settlement"},
	},
	{
		Name:     "complaint",
		Triggers: []string{"complaint", "complaints", "complain", "dissatisfied", "unhappy"},
		Expand:   []string{"complaint", "ombudsman", "resolve", "procedure"},
	},
	{
		Name:     "contact",
		Triggers: []string{"contact", "phone", "telephone", "call", "email", "number"},
		Expand:   []string{"contact", "telephone", "helpline", "call"},
	},
	{
		Name:     "buildings",
		Triggers: []string{"building", "buildings", "structure", "roof", "wall", "walls"},
		Expand:   []string{"buildings", "structure", "rebuild", "repair", "cover"},
	},
	{
		Name:     "contents",
		Triggers: []string{"contents", "belongings", "possessions", "furniture", "valuables"},
		Expand:   []string{"contents", "belongings", "possessions", "cover", "limit"},
	},
	{
		Name:     "accidental",
		Triggers: []string{"accidental", "accident", "accidentally", "spill", "spilled", "broke"},
		Expand:   []string{"accidental", "damage", "cover", "optional"},
	},
	{
		Name:     "coverage",
		Triggers: []string{"cover", "covered", "coverage", "insured", "protect", "protected"},
		Expand:   []string{"cover", "policy", "section", "limit", "excess"},
	},
}

// Expander widens sparse queries with domain vocabulary so short
// questions still reach the relevant policy sections.
type Expander struct {
	topics []topic
}

// NewExpander builds an expander over the built-in topic table.
func NewExpander() *Expander {
	return &Expander{topics: defaultTopics}
}

// NewExpanderFromFile loads a topic table from a YAML file. The file
// holds a list of {name, triggers, expand} entries replacing the
// built-in table.
func NewExpanderFromFile(path string) (*Expander, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read synonyms file: %w", err)
	}
	var topics []topic
	if err := yaml.Unmarshal(data, &topics); err != nil {
		return nil, fmt.Errorf("parse synonyms file %s: %w", path, err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("synonyms file %s defines no topics", path)
	}
	return &Expander{topics: topics}, nil
}

// Expand appends the first matching topic's terms to the query, skipping
// terms the query already contains. Queries touching no topic pass
// through unchanged.
func (e *Expander) Expand(query string) string {
	queryLower := strings.ToLower(query)
	for _, t := range e.topics {
		if !matchesAny(queryLower, t.Triggers) {
			continue
		}
		var extra []string
		for _, term := range t.Expand {
			if !strings.Contains(queryLower, strings.ToLower(term)) {
				extra = append(extra, term)
			}
		}
		if len(extra) == 0 {
			return query
		}
		return query + " " + strings.Join(extra, " ")
	}
	return query
}

func matchesAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
