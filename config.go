package cachet

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/cachet-go/cachet/provider"

	"gopkg.in/yaml.v3"
)

// FileConfig is the yaml configuration consumed by the cachet command.
type FileConfig struct {
	Listen     string               `yaml:"listen"`
	Origin     string               `yaml:"origin"`
	Provider   string               `yaml:"provider"`
	SQLiteFile string               `yaml:"sqliteFile"`
	Redis      provider.RedisConfig `yaml:"redis"`
	DefaultTTL int                  `yaml:"defaultTTL"` // seconds
	WithQuery  bool                 `yaml:"withQuery"`
	Rules      []ConfigRule         `yaml:"rules"`
}

// ConfigRule is the yaml form of a Rule.
type ConfigRule struct {
	// Match is a literal path; "*" (or empty) matches every path.
	Match string `yaml:"match"`
	// Pattern is a regular expression matched against the path.
	// Mutually exclusive with Match.
	Pattern string `yaml:"pattern"`
	Status  int    `yaml:"status"`
	// TTL in seconds; 0 disables caching for the match, absent means the
	// default TTL.
	TTL *int `yaml:"ttl"`
}

// LoadFile reads a yaml configuration file.
func LoadFile(filename string) (FileConfig, error) {
	var config FileConfig
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return config, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

// RuleSet converts the configured rules into a Rules value.
func (c FileConfig) RuleSet() (Rules, error) {
	rules := make(Rules, 0, len(c.Rules))
	for i, cr := range c.Rules {
		rule, err := cr.rule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (cr ConfigRule) rule() (Rule, error) {
	if cr.Match != "" && cr.Pattern != "" {
		return Rule{}, fmt.Errorf("match and pattern are mutually exclusive")
	}
	rule := Rule{
		Match:  MatchPath(cr.Match),
		Status: cr.Status,
	}
	if cr.Pattern != "" {
		pattern, err := regexp.Compile(cr.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("compile pattern: %w", err)
		}
		rule.Match = MatchPattern(pattern)
	}
	if cr.TTL != nil {
		rule.TTL = TTL(time.Duration(*cr.TTL) * time.Second)
	}
	return rule, nil
}
