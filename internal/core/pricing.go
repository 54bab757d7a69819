package core

import (
	"time"

	"gwi.com/beauty-box/internal/store"
)

var planDiscounts = map[store.Plan]float64{
	store.PlanMonthly:   0.10,
	store.PlanQuarterly: 0.15,
	store.PlanYearly:    0.20,
}

const nextDeliveryLayout = "January 2, 2006"

type Prices struct {
	Plan        store.Plan `json:"plan"`
	RetailPrice float64    `json:"retailPrice"`
	BoxPrice    float64    `json:"boxPrice"`
	Discount    float64    `json:"discount"`
}

// ComputePrices sums the box contents and applies the plan discount.
func ComputePrices(products []store.Product, plan store.Plan) Prices {
	var retail float64
	for _, p := range products {
		retail += p.Price
	}
	discount := planDiscounts[plan]
	return Prices{
		Plan:        plan,
		RetailPrice: roundCents(retail),
		BoxPrice:    roundCents(retail * (1 - discount)),
		Discount:    discount,
	}
}

// NextDelivery is the display date one plan interval after from.
func NextDelivery(from time.Time, plan store.Plan) string {
	var next time.Time
	switch plan {
	case store.PlanQuarterly:
		next = from.AddDate(0, 3, 0)
	case store.PlanYearly:
		next = from.AddDate(1, 0, 0)
	default:
		next = from.AddDate(0, 1, 0)
	}
	return next.Format(nextDeliveryLayout)
}

func parsePlan(s string) (store.Plan, bool) {
	switch p := store.Plan(s); p {
	case store.PlanMonthly, store.PlanQuarterly, store.PlanYearly:
		return p, true
	}
	return "", false
}

func parseSubscriptionStatus(s string) (store.SubscriptionStatus, bool) {
	switch st := store.SubscriptionStatus(s); st {
	case store.SubscriptionActive, store.SubscriptionPaused, store.SubscriptionCancelled:
		return st, true
	}
	return "", false
}
