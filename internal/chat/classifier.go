package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	"github.com/anayakapoor/luxethreads-backend/pkg/llm"
)

const classifierSystemPrompt = `You are the routing layer of a fashion store's shopping assistant.
Classify the user's latest message into exactly one agent:

- recommendation: product suggestions and styling advice
- inventory: stock availability and delivery options for a product
- payment: payment processing, transactions, refund status
- fulfillment: order tracking, shipping and delivery of existing orders
- loyalty: points, tiers, discounts and rewards
- support: returns, exchanges, sizing and general customer service

Return ONLY valid JSON, no comments, no extra text:
{"agent": "recommendation|inventory|payment|fulfillment|loyalty|support", "reply": "one short helpful opening sentence"}`

// Classification is the routing decision for one user turn.
type Classification struct {
	Agent enums.AgentType
	Reply string
}

// Classifier routes a message to a specialist agent: one chat-completions
// call with best-effort JSON parsing, falling back to keyword matching when
// the call fails or returns garbage.
type Classifier struct {
	llm llm.Completer
}

// NewClassifier builds a classifier. A nil completer disables the remote
// call and keyword routing is used for every message.
func NewClassifier(completer llm.Completer) *Classifier {
	return &Classifier{llm: completer}
}

// Classify never fails; a broken model call degrades to keyword routing.
func (c *Classifier) Classify(ctx context.Context, message string, history []models.ChatMessage) Classification {
	if c.llm != nil {
		if result, ok := c.classifyRemote(ctx, message, history); ok {
			return result
		}
	}
	return Classification{Agent: classifyByKeywords(message)}
}

func (c *Classifier) classifyRemote(ctx context.Context, message string, history []models.ChatMessage) (Classification, bool) {
	messages := make([]llm.Message, 0, len(history)+1)
	for i := range history {
		turn := &history[i]
		role := "user"
		if turn.Role != enums.ChatRoleUser {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: message})

	raw, err := c.llm.Complete(ctx, classifierSystemPrompt, messages)
	if err != nil {
		return Classification{}, false
	}

	var parsed struct {
		Agent string `json:"agent"`
		Reply string `json:"reply"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return Classification{}, false
	}

	agent, ok := agentFromLabel(parsed.Agent)
	if !ok {
		return Classification{}, false
	}
	return Classification{Agent: agent, Reply: strings.TrimSpace(parsed.Reply)}, true
}

// extractJSON strips markdown fences and trims to the outermost object, the
// two ways models most often wrap their output.
func extractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}

func agentFromLabel(label string) (enums.AgentType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.TrimSuffix(normalized, "_agent")
	switch normalized {
	case "recommendation", "sales":
		return enums.AgentTypeRecommendation, true
	case "inventory":
		return enums.AgentTypeInventory, true
	case "payment":
		return enums.AgentTypePayment, true
	case "fulfillment":
		return enums.AgentTypeFulfillment, true
	case "loyalty":
		return enums.AgentTypeLoyalty, true
	case "support":
		return enums.AgentTypeSupport, true
	default:
		return "", false
	}
}

var keywordRoutes = []struct {
	agent    enums.AgentType
	keywords []string
}{
	{enums.AgentTypeFulfillment, []string{"track", "where is", "delivery", "shipping", "shipped", "deliver"}},
	{enums.AgentTypePayment, []string{"pay", "payment", "refund", "transaction", "charged", "card"}},
	{enums.AgentTypeLoyalty, []string{"loyalty", "points", "reward", "coupon", "discount", "tier"}},
	{enums.AgentTypeSupport, []string{"return", "exchange", "size", "fit", "help", "support", "contact", "complaint"}},
	{enums.AgentTypeInventory, []string{"stock", "available", "availability", "in store", "left"}},
	{enums.AgentTypeRecommendation, []string{"recommend", "suggest", "show me", "looking for", "outfit", "dress", "wear"}},
}

// classifyByKeywords mirrors the remote routing with a fixed keyword table.
// Unmatched messages go to recommendation, the broadest agent.
func classifyByKeywords(message string) enums.AgentType {
	lowered := strings.ToLower(message)
	for _, route := range keywordRoutes {
		for _, keyword := range route.keywords {
			if strings.Contains(lowered, keyword) {
				return route.agent
			}
		}
	}
	return enums.AgentTypeRecommendation
}
