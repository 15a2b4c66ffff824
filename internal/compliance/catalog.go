// Package compliance holds the fixed catalog of compliance topics the
// consolidation prompt asks the model to evaluate, and fills in any topic
// the model's response leaves out so the checklist a caller sees always
// covers the same ground regardless of what the model actually returned.
package compliance

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/contractlens/review-core/internal/core/domain"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Topic is one compliance area the reducer prompt asks the model to check.
type Topic struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

var topics = mustLoadTopics(catalogYAML)

func mustLoadTopics(raw []byte) []Topic {
	var out []Topic
	if err := yaml.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("compliance: parse embedded catalog: %v", err))
	}
	return out
}

// Topics returns the fixed compliance catalog.
func Topics() []Topic {
	return topics
}

// PromptList renders the catalog as a bullet list for inclusion in the
// consolidation system prompt, so the model checks a stable set of topics
// rather than whatever it thinks to check on its own.
func PromptList() string {
	var b strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s：%s\n", t.Label, t.Description)
	}
	return b.String()
}

// EnsureCoverage appends an "na" entry for every catalog topic the model's
// checklist did not address, matched by label since the model echoes the
// label text rather than the internal key.
func EnsureCoverage(items []domain.ComplianceItem) []domain.ComplianceItem {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		seen[strings.TrimSpace(item.Topic)] = true
	}

	out := items
	for _, t := range topics {
		if seen[t.Label] {
			continue
		}
		out = append(out, domain.ComplianceItem{
			Topic:  t.Label,
			Status: domain.ComplianceNA,
			Notes:  "模型未针对该项给出评估",
		})
	}
	return out
}
