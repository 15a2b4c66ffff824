package compliance

import (
	"strings"
	"testing"

	"github.com/contractlens/review-core/internal/core/domain"
)

func TestTopicsLoadsEmbeddedCatalog(t *testing.T) {
	got := Topics()
	if len(got) == 0 {
		t.Fatalf("expected a non-empty compliance catalog")
	}
	for _, topic := range got {
		if topic.Key == "" || topic.Label == "" {
			t.Fatalf("topic missing key/label: %+v", topic)
		}
	}
}

func TestPromptListIncludesEveryTopicLabel(t *testing.T) {
	list := PromptList()
	for _, topic := range Topics() {
		if !strings.Contains(list, topic.Label) {
			t.Fatalf("prompt list missing topic label %q", topic.Label)
		}
	}
}

func TestEnsureCoverageFillsMissingTopicsOnly(t *testing.T) {
	first := Topics()[0]
	items := []domain.ComplianceItem{
		{Topic: first.Label, Status: domain.ComplianceOK, Notes: "已评估"},
	}

	out := EnsureCoverage(items)
	if len(out) != len(Topics()) {
		t.Fatalf("expected coverage for all %d topics, got %d", len(Topics()), len(out))
	}

	for _, item := range out {
		if item.Topic == first.Label && item.Status != domain.ComplianceOK {
			t.Fatalf("pre-existing topic should not be overwritten, got status %q", item.Status)
		}
	}
}
