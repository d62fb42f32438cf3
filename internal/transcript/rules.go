package transcript

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule is a named noise pattern, matched against the start of a normalized line.
type Rule struct {
	Name       string `yaml:"name"`
	Pattern    string `yaml:"pattern"`
	IgnoreCase bool   `yaml:"ignore_case"`

	re *regexp.Regexp
}

// RuleSet is an ordered list of noise rules. The first matching rule wins.
type RuleSet struct {
	rules []Rule
}

// generalRules describe status lines every mIRC transcript carries.
var generalRules = []Rule{
	{Name: "join-part-bracketed", Pattern: `^\[.*\]\s*[★☆●○]\s*(joins|parts|quits|nick change|mode)`, IgnoreCase: true},
	{Name: "join-part", Pattern: `^[★☆●○]\s*(joins|parts|quits|nick change|mode|\[)`, IgnoreCase: true},
	{Name: "join-part-star", Pattern: `^\[[^\]]*\]\s*\*\s+\S+.*\b(has joined|has left|has quit|is now known as|sets mode)`, IgnoreCase: true},
	{Name: "connection-banner", Pattern: `^\*\*\*\s+(Disconnected|Retrieving|Connecting)`, IgnoreCase: true},
	{Name: "topic-metadata", Pattern: `^(\[\s*topic\.\.|modes\.\.|by\.\.|time\.\.)`, IgnoreCase: true},
	{Name: "whois-host", Pattern: `^\s*\[u@h:`, IgnoreCase: true},
	{Name: "whois-realname", Pattern: `^\s*\[realname:`, IgnoreCase: true},
	{Name: "whois-channels", Pattern: `^\s*\[channels:`, IgnoreCase: true},
	{Name: "whois-server", Pattern: `^\s*\[server:`, IgnoreCase: true},
	{Name: "whois-idle", Pattern: `^\s*\[idle:`, IgnoreCase: true},
	{Name: "local-host", Pattern: `^Local host:`, IgnoreCase: true},
	{Name: "blank", Pattern: `^\s*$`},
}

// corpusRules match decorative glyphs that were mangled into U+FFFD by a lossy
// re-encode, plus colour numbers left behind when the ^C byte itself was lost.
var corpusRules = []Rule{
	{Name: "join-part-bracketed-damaged", Pattern: `^\[.*\]\s*\x{FFFD}\s*(joins|parts|quits|nick change|mode)`, IgnoreCase: true},
	{Name: "join-part-damaged", Pattern: `^\x{FFFD}\s*(joins|parts|quits|nick change|mode|\[)`, IgnoreCase: true},
	{Name: "header-damaged", Pattern: `^[\x{FFFD}_]+\[`},
	{Name: "color-number-prefix", Pattern: `^\d{2}\s*[\[\-\*]`},
}

// DefaultRules returns the general rules followed by the corpus-specific ones.
func DefaultRules() *RuleSet {
	rules := make([]Rule, 0, len(generalRules)+len(corpusRules))
	rules = append(rules, generalRules...)
	rules = append(rules, corpusRules...)
	rs, err := NewRuleSet(rules)
	if err != nil {
		panic(err) // built-in patterns are constant
	}
	return rs
}

// NewRuleSet compiles rules in order.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	compiled := make([]Rule, len(rules))
	for i, r := range rules {
		expr := r.Pattern
		if r.IgnoreCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.re = re
		compiled[i] = r
	}
	return &RuleSet{rules: compiled}, nil
}

type rulesFile struct {
	ExtendDefaults bool   `yaml:"extend_defaults"`
	Rules          []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file. The file's rules replace the defaults unless
// extend_defaults is set, in which case they are appended after them.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	rules := f.Rules
	if f.ExtendDefaults {
		rules = append(append([]Rule{}, generalRules...), corpusRules...)
		rules = append(rules, f.Rules...)
	}
	return NewRuleSet(rules)
}

// Match returns the name of the first rule matching line.
func (rs *RuleSet) Match(line string) (string, bool) {
	for _, r := range rs.rules {
		if r.re.MatchString(line) {
			return r.Name, true
		}
	}
	return "", false
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }
