package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	"github.com/anayakapoor/luxethreads-backend/pkg/llm"
)

type stubCompleter struct {
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, _ string, _ []llm.Message) (string, error) {
	s.calls++
	return s.response, s.err
}

func TestClassifyParsesFencedJSON(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "```json\n{\"agent\": \"loyalty\", \"reply\": \"Let me check your points.\"}\n```"}
	c := NewClassifier(completer)

	result := c.Classify(context.Background(), "how many points do I have", nil)
	if result.Agent != enums.AgentTypeLoyalty {
		t.Fatalf("agent = %s, want %s", result.Agent, enums.AgentTypeLoyalty)
	}
	if result.Reply != "Let me check your points." {
		t.Fatalf("reply = %q", result.Reply)
	}
}

func TestClassifyExtractsEmbeddedJSON(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "Sure, here is the routing: {\"agent\": \"support_agent\"} hope that helps"}
	c := NewClassifier(completer)

	result := c.Classify(context.Background(), "I want to exchange this", nil)
	if result.Agent != enums.AgentTypeSupport {
		t.Fatalf("agent = %s, want %s", result.Agent, enums.AgentTypeSupport)
	}
}

func TestClassifyFallsBackOnGarbageOutput(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "I cannot classify this message."}
	c := NewClassifier(completer)

	result := c.Classify(context.Background(), "where is my order, has it shipped?", nil)
	if result.Agent != enums.AgentTypeFulfillment {
		t.Fatalf("agent = %s, want %s", result.Agent, enums.AgentTypeFulfillment)
	}
	if result.Reply != "" {
		t.Fatalf("fallback should not carry a model reply, got %q", result.Reply)
	}
}

func TestClassifyFallsBackOnCompleterError(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{err: fmt.Errorf("upstream 503")}
	c := NewClassifier(completer)

	result := c.Classify(context.Background(), "I need a refund for my last transaction", nil)
	if result.Agent != enums.AgentTypePayment {
		t.Fatalf("agent = %s, want %s", result.Agent, enums.AgentTypePayment)
	}
}

func TestClassifyNilCompleterUsesKeywords(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil)

	cases := []struct {
		message string
		want    enums.AgentType
	}{
		{"can you recommend something for a wedding", enums.AgentTypeRecommendation},
		{"is the silk blouse still available", enums.AgentTypeInventory},
		{"my card got charged twice", enums.AgentTypePayment},
		{"track my package please", enums.AgentTypeFulfillment},
		{"do I have any reward points", enums.AgentTypeLoyalty},
		{"what size should I order", enums.AgentTypeSupport},
		{"hello there", enums.AgentTypeRecommendation},
	}
	for _, tc := range cases {
		if got := c.Classify(context.Background(), tc.message, nil); got.Agent != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.message, got.Agent, tc.want)
		}
	}
}

func TestClassifyRejectsUnknownAgentLabel(t *testing.T) {
	t.Parallel()

	completer := &stubCompleter{response: "{\"agent\": \"concierge\", \"reply\": \"hi\"}"}
	c := NewClassifier(completer)

	result := c.Classify(context.Background(), "show me dresses", nil)
	if result.Agent != enums.AgentTypeRecommendation {
		t.Fatalf("agent = %s, want keyword fallback %s", result.Agent, enums.AgentTypeRecommendation)
	}
}
