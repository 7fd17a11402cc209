package nickname

import "strings"

// Rule maps trigger substrings to a fixed canned reply.
type Rule struct {
	Triggers []string
	Reply    string
}

// Table is an ordered rule list; the first rule with any matching trigger
// wins. Matching is case-insensitive substring containment.
type Table struct {
	rules []Rule
}

func NewTable(rules []Rule) *Table {
	return &Table{rules: rules}
}

// DefaultTable holds the built-in greetings.
func DefaultTable() *Table {
	return NewTable([]Rule{
		{Triggers: []string{"nilesh", "nilu"}, Reply: "Aree bade Bhaiya! Kaisan baa😎"},
		{Triggers: []string{"shreyash", "yash"}, Reply: "What's up, Yash! Good to see you 😏"},
	})
}

// Match returns the canned reply for input, if any rule triggers. A match
// bypasses the completion call entirely.
func (t *Table) Match(input string) (string, bool) {
	msg := strings.ToLower(input)
	for _, rule := range t.rules {
		for _, trigger := range rule.Triggers {
			if strings.Contains(msg, trigger) {
				return rule.Reply, true
			}
		}
	}
	return "", false
}
