package enums

import "fmt"

// AgentType identifies the specialist handler a chat message is routed to.
type AgentType string

const (
	AgentTypeSales          AgentType = "sales_agent"
	AgentTypeRecommendation AgentType = "recommendation_agent"
	AgentTypeInventory      AgentType = "inventory_agent"
	AgentTypePayment        AgentType = "payment_agent"
	AgentTypeFulfillment    AgentType = "fulfillment_agent"
	AgentTypeLoyalty        AgentType = "loyalty_agent"
	AgentTypeSupport        AgentType = "support_agent"
)

var validAgentTypes = []AgentType{
	AgentTypeSales,
	AgentTypeRecommendation,
	AgentTypeInventory,
	AgentTypePayment,
	AgentTypeFulfillment,
	AgentTypeLoyalty,
	AgentTypeSupport,
}

// IsValid reports whether the value is a known AgentType.
func (a AgentType) IsValid() bool {
	for _, candidate := range validAgentTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAgentType converts raw input into an AgentType.
func ParseAgentType(value string) (AgentType, error) {
	for _, candidate := range validAgentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent type %q", value)
}
