package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plan"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// SQLite has no native JSON column type, so metadata is stored as a
// serialized TEXT column rather than the jsonb mapping the Postgres
// models use.

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:recur_plans"`

	Address           string    `grove:"address,pk"`
	Merchant          string    `grove:"merchant"`
	Key               string    `grove:"key"`
	Name              string    `grove:"name"`
	Description       string    `grove:"description"`
	PriceAmount       int64     `grove:"price_amount"`
	PriceDenom        string    `grove:"price_denom"`
	FrequencySeconds  int64     `grove:"frequency_seconds"`
	SettlementAccount string    `grove:"settlement_account"`
	Status            string    `grove:"status"`
	Metadata          string    `grove:"metadata"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toPlanModel(p *plan.Plan) *planModel {
	return &planModel{
		Address:           p.Address.String(),
		Merchant:          p.Merchant.String(),
		Key:               p.Key,
		Name:              p.Name,
		Description:       p.Description,
		PriceAmount:       p.Price.Amount,
		PriceDenom:        p.Price.Denom,
		FrequencySeconds:  int64(p.Frequency / time.Second),
		SettlementAccount: p.SettlementAccount.String(),
		Status:            string(p.Status),
		Metadata:          marshalMetadata(p.Metadata),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	addr, err := id.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	merchant, err := id.ParseMerchantID(m.Merchant)
	if err != nil {
		return nil, err
	}
	settlement, err := id.ParseAccountID(m.SettlementAccount)
	if err != nil {
		return nil, err
	}

	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:           addr,
		Merchant:          merchant,
		Key:               m.Key,
		Name:              m.Name,
		Description:       m.Description,
		Price:             types.Money{Amount: m.PriceAmount, Denom: m.PriceDenom},
		Frequency:         time.Duration(m.FrequencySeconds) * time.Second,
		SettlementAccount: settlement,
		Status:            plan.Status(m.Status),
		Metadata:          unmarshalMetadata(m.Metadata),
	}, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	grove.BaseModel `grove:"table:recur_subscriptions"`

	Address         string     `grove:"address,pk"`
	Subscriber      string     `grove:"subscriber"`
	PlanAddress     string     `grove:"plan_address"`
	FundingAccount  string     `grove:"funding_account"`
	Status          string     `grove:"status"`
	StartTime       time.Time  `grove:"start_time"`
	NextBillingTime time.Time  `grove:"next_billing_time"`
	PausedAt        *time.Time `grove:"paused_at"`
	CanceledAt      *time.Time `grove:"canceled_at"`
	ResumedAt       *time.Time `grove:"resumed_at"`
	CreatedAt       time.Time  `grove:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		Address:         s.Address.String(),
		Subscriber:      s.Subscriber.String(),
		PlanAddress:     s.PlanAddress.String(),
		FundingAccount:  s.FundingAccount.String(),
		Status:          string(s.Status),
		StartTime:       s.StartTime,
		NextBillingTime: s.NextBillingTime,
		PausedAt:        s.PausedAt,
		CanceledAt:      s.CanceledAt,
		ResumedAt:       s.ResumedAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	addr, err := id.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	subscriber, err := id.ParseSubscriberID(m.Subscriber)
	if err != nil {
		return nil, err
	}
	planAddr, err := id.ParseAddress(m.PlanAddress)
	if err != nil {
		return nil, err
	}
	funding, err := id.ParseAccountID(m.FundingAccount)
	if err != nil {
		return nil, err
	}

	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:         addr,
		Subscriber:      subscriber,
		PlanAddress:     planAddr,
		FundingAccount:  funding,
		Status:          subscription.Status(m.Status),
		StartTime:       m.StartTime,
		NextBillingTime: m.NextBillingTime,
		PausedAt:        m.PausedAt,
		CanceledAt:      m.CanceledAt,
		ResumedAt:       m.ResumedAt,
	}, nil
}

// ==================== Payment models ====================

type paymentModel struct {
	grove.BaseModel `grove:"table:recur_payments"`

	ID                  string    `grove:"id,pk"`
	SubscriptionAddress string    `grove:"subscription_address"`
	AmountUnits         int64     `grove:"amount_units"`
	AmountDenom         string    `grove:"amount_denom"`
	Kind                string    `grove:"kind"`
	Status              string    `grove:"status"`
	Reason              string    `grove:"reason"`
	PaidAt              time.Time `grove:"paid_at"`
	CreatedAt           time.Time `grove:"created_at"`
	UpdatedAt           time.Time `grove:"updated_at"`
}

func toPaymentModel(p *payment.Payment) *paymentModel {
	return &paymentModel{
		ID:                  p.ID.String(),
		SubscriptionAddress: p.SubscriptionAddress.String(),
		AmountUnits:         p.Amount.Amount,
		AmountDenom:         p.Amount.Denom,
		Kind:                string(p.Kind),
		Status:              string(p.Status),
		Reason:              p.Reason,
		PaidAt:              p.PaidAt,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func fromPaymentModel(m *paymentModel) (*payment.Payment, error) {
	paymentID, err := id.ParsePaymentID(m.ID)
	if err != nil {
		return nil, err
	}
	subAddr, err := id.ParseAddress(m.SubscriptionAddress)
	if err != nil {
		return nil, err
	}

	return &payment.Payment{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                  paymentID,
		SubscriptionAddress: subAddr,
		Amount:              types.Money{Amount: m.AmountUnits, Denom: m.AmountDenom},
		Kind:                payment.Kind(m.Kind),
		Status:              payment.Status(m.Status),
		Reason:              m.Reason,
		PaidAt:              m.PaidAt,
	}, nil
}

// ==================== Helpers ====================

func marshalMetadata(md map[string]string) string {
	if len(md) == 0 {
		return "{}"
	}
	data, err := json.Marshal(md)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func unmarshalMetadata(s string) map[string]string {
	if s == "" || s == "{}" {
		return nil
	}
	md := make(map[string]string)
	if err := json.Unmarshal([]byte(s), &md); err != nil {
		return nil
	}
	return md
}
