package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/anayakapoor/luxethreads-backend/internal/orders"
	"github.com/anayakapoor/luxethreads-backend/internal/products"
	"github.com/anayakapoor/luxethreads-backend/pkg/db/models"
	"github.com/anayakapoor/luxethreads-backend/pkg/enums"
	"github.com/anayakapoor/luxethreads-backend/pkg/pagination"
)

// agentReply is the output of one specialist handler before persistence.
type agentReply struct {
	Response  string
	Actions   []SuggestedAction
	NextSteps []string
}

// agents holds the read-side dependencies the specialist handlers pull from.
// Handlers answer from live store data; they never mutate anything.
type agents struct {
	products products.Repository
	orders   orders.Repository
}

func (a *agents) dispatch(ctx context.Context, agent enums.AgentType, user *models.User, message string) (agentReply, error) {
	switch agent {
	case enums.AgentTypeRecommendation:
		return a.recommend(ctx, message)
	case enums.AgentTypeInventory:
		return a.inventory(ctx, message)
	case enums.AgentTypePayment:
		return a.payment(ctx, user)
	case enums.AgentTypeFulfillment:
		return a.fulfillment(ctx, user)
	case enums.AgentTypeLoyalty:
		return a.loyalty(user), nil
	case enums.AgentTypeSupport:
		return supportReply(message), nil
	default:
		return a.recommend(ctx, message)
	}
}

func (a *agents) recommend(ctx context.Context, message string) (agentReply, error) {
	inStock := true
	filters := products.ListFilters{InStock: &inStock}
	if category, ok := matchCategory(message); ok {
		filters.Category = &category
	}
	page, err := a.products.List(ctx, products.ListInput{
		Filters:    filters,
		Pagination: pagination.Params{Limit: 5},
	})
	if err != nil {
		return agentReply{}, err
	}
	if len(page.Products) == 0 {
		return agentReply{
			Response:  "I couldn't find anything in stock matching that right now. Tell me a bit more about what you're looking for?",
			NextSteps: []string{"Try a different category", "Browse the full catalog"},
		}, nil
	}

	var sb strings.Builder
	sb.WriteString("Here are a few pieces I think you'll love:\n")
	for _, p := range page.Products {
		fmt.Fprintf(&sb, "- %s (%s) — $%s\n", p.Name, p.Category, p.Price.StringFixed(2))
	}
	return agentReply{
		Response: sb.String(),
		Actions: []SuggestedAction{
			{Action: "view_product", Label: "View details"},
			{Action: "add_to_cart", Label: "Add to cart"},
		},
		NextSteps: []string{"Want sizing help?", "Looking for a specific occasion?"},
	}, nil
}

func (a *agents) inventory(ctx context.Context, message string) (agentReply, error) {
	page, err := a.products.List(ctx, products.ListInput{
		Pagination: pagination.Params{Limit: pagination.MaxLimit},
	})
	if err != nil {
		return agentReply{}, err
	}

	lowered := strings.ToLower(message)
	for _, p := range page.Products {
		if !strings.Contains(lowered, strings.ToLower(p.Name)) {
			continue
		}
		if p.Stock <= 0 {
			return agentReply{
				Response:  fmt.Sprintf("%s is currently out of stock. I can let you know when it's back.", p.Name),
				Actions:   []SuggestedAction{{Action: "notify_restock", Label: "Notify me"}},
				NextSteps: []string{"See similar items"},
			}, nil
		}
		return agentReply{
			Response: fmt.Sprintf("Good news, %s is in stock — %d left at $%s. Standard delivery takes 3-5 business days, express 1-2.",
				p.Name, p.Stock, p.Price.StringFixed(2)),
			Actions:   []SuggestedAction{{Action: "add_to_cart", Label: "Add to cart"}},
			NextSteps: []string{"Ready to check out?"},
		}, nil
	}

	return agentReply{
		Response:  "Which item would you like me to check? Give me the product name and I'll look up stock and delivery options.",
		NextSteps: []string{"Name a product to check availability"},
	}, nil
}

func (a *agents) payment(ctx context.Context, user *models.User) (agentReply, error) {
	order, ok, err := a.latestOrder(ctx, user)
	if err != nil {
		return agentReply{}, err
	}
	if !ok {
		return agentReply{
			Response:  "You don't have any orders yet, so there's nothing to pay for. We accept credit card, debit card, PayPal and Apple Pay at checkout.",
			NextSteps: []string{"Browse the catalog", "Ask about a payment method"},
		}, nil
	}

	switch order.PaymentStatus {
	case enums.PaymentStatusPaid:
		reply := agentReply{
			Response:  fmt.Sprintf("Your latest order %s is fully paid ($%s).", order.OrderNumber, order.FinalAmount.StringFixed(2)),
			NextSteps: []string{"Need a receipt?", "Want to track delivery?"},
		}
		if order.TransactionID != nil {
			reply.Response += fmt.Sprintf(" Transaction reference: %s.", *order.TransactionID)
		}
		return reply, nil
	case enums.PaymentStatusFailed:
		return agentReply{
			Response:  fmt.Sprintf("The last payment attempt on order %s didn't go through. You can retry with the same or a different payment method.", order.OrderNumber),
			Actions:   []SuggestedAction{{Action: "retry_payment", Label: "Retry payment"}},
			NextSteps: []string{"Try a different card", "Contact support if it keeps failing"},
		}, nil
	case enums.PaymentStatusRefunded:
		return agentReply{
			Response:  fmt.Sprintf("Order %s has been refunded ($%s). Refunds usually reach your account within 5-7 business days.", order.OrderNumber, order.FinalAmount.StringFixed(2)),
			NextSteps: []string{"Anything else I can check?"},
		}, nil
	default:
		return agentReply{
			Response:  fmt.Sprintf("Order %s is awaiting payment of $%s.", order.OrderNumber, order.FinalAmount.StringFixed(2)),
			Actions:   []SuggestedAction{{Action: "pay_order", Label: "Pay now"}},
			NextSteps: []string{"Complete the payment to start fulfillment"},
		}, nil
	}
}

func (a *agents) fulfillment(ctx context.Context, user *models.User) (agentReply, error) {
	order, ok, err := a.latestOrder(ctx, user)
	if err != nil {
		return agentReply{}, err
	}
	if !ok {
		return agentReply{
			Response:  "I don't see any orders on your account yet. Once you place one I can track it for you.",
			NextSteps: []string{"Browse the catalog"},
		}, nil
	}

	var status string
	switch order.Status {
	case enums.OrderStatusProcessing:
		status = "is being prepared"
	case enums.OrderStatusConfirmed:
		status = "is confirmed and queued for shipping"
	case enums.OrderStatusShipped:
		status = "has shipped and is on its way"
	case enums.OrderStatusDelivered:
		status = "was delivered"
	case enums.OrderStatusCancelled:
		status = "was cancelled"
	default:
		status = fmt.Sprintf("is %s", order.Status)
	}
	return agentReply{
		Response:  fmt.Sprintf("Your order %s %s.", order.OrderNumber, status),
		Actions:   []SuggestedAction{{Action: "view_order", Label: "View order"}},
		NextSteps: []string{"Need details on another order?", "Want to check delivery options?"},
	}, nil
}

func (a *agents) loyalty(user *models.User) agentReply {
	score := user.LoyaltyScore
	tier := loyaltyTier(score)

	var perk string
	switch tier {
	case "Platinum":
		perk = "You get our best pricing plus early access to new drops."
	case "Gold":
		perk = "You unlock a 10% discount on every order."
	case "Silver":
		perk = "You unlock a 5% discount on every order."
	default:
		next := 1000 - score
		perk = fmt.Sprintf("Earn %d more points to reach Silver and unlock a 5%% discount.", next)
	}
	return agentReply{
		Response:  fmt.Sprintf("You have %d loyalty points, which puts you in the %s tier. %s You earn 1 point for every $10 spent.", score, tier, perk),
		NextSteps: []string{"Ask how discounts apply at checkout"},
	}
}

func (a *agents) latestOrder(ctx context.Context, user *models.User) (*models.Order, bool, error) {
	recent, _, err := a.orders.ListByUser(ctx, orders.ListInput{
		UserID:     user.ID,
		Pagination: pagination.Params{Limit: 1},
	})
	if err != nil {
		return nil, false, err
	}
	if len(recent) == 0 {
		return nil, false, nil
	}
	return &recent[0], true, nil
}

// loyaltyTier maps a points balance onto the published tier ladder.
func loyaltyTier(score int) string {
	switch {
	case score >= 10000:
		return "Platinum"
	case score >= 5000:
		return "Gold"
	case score >= 1000:
		return "Silver"
	default:
		return "Bronze"
	}
}

const sizeGuide = `Here's our size guide:
- XS: Bust 32-33", Waist 24-25", Hips 34-35"
- S: Bust 34-35", Waist 26-27", Hips 36-37"
- M: Bust 36-37", Waist 28-29", Hips 38-39"
- L: Bust 38-39", Waist 30-31", Hips 40-41"
- XL: Bust 40-41", Waist 32-33", Hips 42-43"

Still unsure? Our support team is happy to help with fit.`

func supportReply(message string) agentReply {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "size") || strings.Contains(lowered, "fit") || strings.Contains(lowered, "measurement"):
		return agentReply{
			Response:  sizeGuide,
			NextSteps: []string{"Want a recommendation in your size?"},
		}
	case strings.Contains(lowered, "return") || strings.Contains(lowered, "exchange"):
		return agentReply{
			Response:  "You can return or exchange any unworn item within 30 days of delivery. Start a return from your order page and we'll email you a prepaid label.",
			Actions:   []SuggestedAction{{Action: "start_return", Label: "Start a return"}},
			NextSteps: []string{"Need the return policy details?"},
		}
	case strings.Contains(lowered, "contact") || strings.Contains(lowered, "human") || strings.Contains(lowered, "agent"):
		return agentReply{
			Response:  "You can reach our support team at support@luxethreads.example or 1-800-LUX-THRD, Monday to Friday 9am-6pm ET.",
			NextSteps: []string{"Anything I can help with in the meantime?"},
		}
	default:
		return agentReply{
			Response:  "I'm here to help with sizing, returns, exchanges and anything else about your orders. What do you need?",
			NextSteps: []string{"Ask about the size guide", "Ask about returns"},
		}
	}
}

var categoryKeywords = map[string][]string{
	"dresses":     {"dress", "gown"},
	"tops":        {"top", "shirt", "blouse", "tee"},
	"bottoms":     {"pants", "jeans", "skirt", "trousers", "shorts"},
	"outerwear":   {"jacket", "coat", "blazer"},
	"accessories": {"bag", "belt", "scarf", "accessory", "accessories"},
	"shoes":       {"shoe", "shoes", "heels", "boots", "sneakers"},
}

func matchCategory(message string) (string, bool) {
	lowered := strings.ToLower(message)
	for category, keywords := range categoryKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				return category, true
			}
		}
	}
	return "", false
}
