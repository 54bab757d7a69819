package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/store"
)

// Replay folds the order history, oldest first, over base: removal orders drop
// their item ids, every other order adds items whose id is missing. Survivors
// from base keep base order; ids new to base follow in the order history first
// added them. An empty result keeps base's first product. Replaying the result
// again over the same history yields the same list.
func Replay(base []store.Product, history []store.Order) []store.Product {
	present := make(map[string]bool, len(base))
	inBase := make(map[string]bool, len(base))
	for _, p := range base {
		present[p.ID] = true
		inBase[p.ID] = true
	}

	var added []store.Product
	addedAt := make(map[string]int)
	for _, o := range Chronological(history) {
		for _, it := range o.Items {
			if o.IsRemoval {
				present[it.ID] = false
				continue
			}
			if present[it.ID] {
				continue
			}
			present[it.ID] = true
			if inBase[it.ID] {
				continue
			}
			p := productFromOrderItem(o, it)
			if i, ok := addedAt[it.ID]; ok {
				added[i] = p
				continue
			}
			addedAt[it.ID] = len(added)
			added = append(added, p)
		}
	}

	out := make([]store.Product, 0, len(base)+len(added))
	for _, p := range append(append([]store.Product(nil), base...), added...) {
		if present[p.ID] {
			out = append(out, p)
			present[p.ID] = false
		}
	}
	if len(out) == 0 && len(base) > 0 {
		out = []store.Product{base[0]}
	}
	return out
}

func hasProduct(list []store.Product, id string) bool {
	for _, p := range list {
		if p.ID == id {
			return true
		}
	}
	return false
}

func withoutProduct(list []store.Product, id string) []store.Product {
	out := list[:0:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func productFromOrderItem(o store.Order, it store.OrderItem) store.Product {
	p := store.Product{
		ID:       it.ID,
		Name:     it.Name,
		Price:    it.Price,
		Image:    it.Image,
		Category: it.Category,
		Source:   store.SourceCatalog,
	}
	switch {
	case o.IsFileUpload:
		p.Source = store.SourceUpload
		p.FileName = o.FileName
	case o.IsCustom:
		p.Source = store.SourceCustom
	}
	return p
}

// SubscriptionService keeps the subscription key consistent with the order history.
type SubscriptionService struct {
	state   *store.State
	catalog *catalog.Catalog
	orders  *OrderService
	now     func() time.Time
}

func NewSubscriptionService(state *store.State, c *catalog.Catalog, orders *OrderService) *SubscriptionService {
	return &SubscriptionService{state: state, catalog: c, orders: orders, now: time.Now}
}

func (s *SubscriptionService) defaultSubscription() store.Subscription {
	return store.Subscription{
		ID:           newID(subscriptionIDPrefix),
		Status:       store.SubscriptionActive,
		Plan:         store.PlanMonthly,
		NextDelivery: NextDelivery(s.now(), store.PlanMonthly),
		Products:     s.catalog.DefaultBox(),
	}
}

// Load returns the subscription rebuilt from the persisted product list (or the
// default box) and the full order history, and writes the result back.
func (s *SubscriptionService) Load(ns string) store.Subscription {
	sub := store.Get(s.state, ns, store.KeySubscription, store.Subscription{})
	if sub.ID == "" {
		sub = s.defaultSubscription()
	}
	base := sub.Products
	if len(base) == 0 {
		base = s.catalog.DefaultBox()
	}
	history, _ := s.orders.History(ns)
	sub.Products = Replay(base, history)
	s.save(ns, sub)
	return sub
}

func (s *SubscriptionService) save(ns string, sub store.Subscription) {
	persist(s.state, ns, store.KeySubscription, sub)
	prices := ComputePrices(sub.Products, sub.Plan)
	persist(s.state, ns, store.KeyRetailPrice, prices.RetailPrice)
	persist(s.state, ns, store.KeyBoxPrice, prices.BoxPrice)
	persist(s.state, ns, store.KeyDeliveryFrequency, string(sub.Plan))
}

func (s *SubscriptionService) Prices(ns string) Prices {
	sub := s.Load(ns)
	return ComputePrices(sub.Products, sub.Plan)
}

func (s *SubscriptionService) ensureEditable(sub store.Subscription) error {
	if sub.Status == store.SubscriptionCancelled {
		return invalid("subscription is cancelled; reactivate it before changing products")
	}
	return nil
}

func (s *SubscriptionService) addProducts(ns string, products []store.Product, mark func(*store.Order)) (store.Subscription, *store.Order, error) {
	sub := s.Load(ns)
	if err := s.ensureEditable(sub); err != nil {
		return sub, nil, err
	}
	var fresh []store.CartItem
	for _, p := range products {
		if hasProduct(sub.Products, p.ID) {
			continue
		}
		sub.Products = append(sub.Products, p)
		fresh = append(fresh, store.CartItem{Product: p, Quantity: 1})
	}
	if len(fresh) == 0 {
		return sub, nil, fmt.Errorf("already in your subscription: %w", ErrConflict)
	}

	order := NewOrder(newID(orderIDPrefix), s.now(), fresh, "Subscription box")
	order.IsAddition = true
	if mark != nil {
		mark(&order)
	}
	s.orders.Append(ns, order)
	s.save(ns, sub)
	return sub, &order, nil
}

// AddProduct adds a catalog product to the box.
func (s *SubscriptionService) AddProduct(ns, productID string) (store.Subscription, *store.Order, error) {
	p, ok := s.catalog.FindByID(productID)
	if !ok {
		return store.Subscription{}, nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return s.addProducts(ns, []store.Product{p}, nil)
}

type CustomProductInput struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// AddCustomProduct adds a product the customer described themselves.
func (s *SubscriptionService) AddCustomProduct(ns string, in CustomProductInput) (store.Subscription, *store.Order, error) {
	var problems []string
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, "name is required")
	}
	if in.Price < 0 {
		problems = append(problems, "price cannot be negative")
	}
	if len(problems) > 0 {
		return store.Subscription{}, nil, invalid(problems...)
	}
	p := store.Product{
		ID:          newID(customIDPrefix),
		Name:        strings.TrimSpace(in.Name),
		Price:       roundCents(in.Price),
		Category:    store.ParseCategory(in.Category),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Source:      store.SourceCustom,
	}
	return s.addProducts(ns, []store.Product{p}, func(o *store.Order) { o.IsCustom = true })
}

// RemoveProduct takes a product out of the box. The last product cannot be removed.
func (s *SubscriptionService) RemoveProduct(ns, productID string) (store.Subscription, *store.Order, error) {
	sub := s.Load(ns)
	if err := s.ensureEditable(sub); err != nil {
		return sub, nil, err
	}
	var target *store.Product
	for _, p := range sub.Products {
		if p.ID == productID {
			target = &p
			break
		}
	}
	if target == nil {
		return sub, nil, fmt.Errorf("product %s is not in your subscription: %w", productID, ErrNotFound)
	}
	if len(sub.Products) <= 1 {
		return sub, nil, invalid("your subscription must keep at least one product")
	}

	order := NewOrder(newID(orderIDPrefix), s.now(), []store.CartItem{{Product: *target, Quantity: 1}}, "Subscription box")
	order.IsRemoval = true
	s.orders.Append(ns, order)

	sub.Products = withoutProduct(sub.Products, productID)
	s.save(ns, sub)
	return sub, &order, nil
}

type SubscriptionUpdate struct {
	Plan   string `json:"plan,omitempty"`
	Status string `json:"status,omitempty"`
}

// Update changes plan and/or status. A plan change moves the next delivery date.
func (s *SubscriptionService) Update(ns string, u SubscriptionUpdate) (store.Subscription, error) {
	sub := s.Load(ns)
	var problems []string
	var plan store.Plan
	var status store.SubscriptionStatus
	if u.Plan != "" {
		var ok bool
		if plan, ok = parsePlan(strings.ToLower(u.Plan)); !ok {
			problems = append(problems, fmt.Sprintf("unknown plan %q", u.Plan))
		}
	}
	if u.Status != "" {
		var ok bool
		if status, ok = parseSubscriptionStatus(strings.ToLower(u.Status)); !ok {
			problems = append(problems, fmt.Sprintf("unknown status %q", u.Status))
		}
	}
	if u.Plan == "" && u.Status == "" {
		problems = append(problems, "nothing to update")
	}
	if len(problems) > 0 {
		return sub, invalid(problems...)
	}

	if plan != "" && plan != sub.Plan {
		sub.Plan = plan
		sub.NextDelivery = NextDelivery(s.now(), plan)
	}
	if status != "" {
		if status == store.SubscriptionActive && sub.Status != store.SubscriptionActive {
			sub.NextDelivery = NextDelivery(s.now(), sub.Plan)
		}
		sub.Status = status
	}
	s.save(ns, sub)
	log.Info().Str("namespace", ns).Str("plan", string(sub.Plan)).Str("status", string(sub.Status)).Msg("subscription updated")
	return sub, nil
}

// ImportResult reports what a bulk upload did.
type ImportResult struct {
	FileName string          `json:"fileName"`
	Added    []store.Product `json:"added"`
	Dropped  []string        `json:"dropped"`
	Skipped  int             `json:"skipped"`
	Problems []string        `json:"problems,omitempty"`
	Message  string          `json:"message"`
	Order    *store.Order    `json:"order,omitempty"`
}

// Import parses a product file and adds the products whose category may go in a box.
func (s *SubscriptionService) Import(ns, fileName string, data []byte) (*ImportResult, error) {
	parsed, err := ParseProductFile(fileName, data)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{FileName: fileName, Skipped: parsed.Skipped, Problems: parsed.Problems, Dropped: []string{}}
	var keep []store.Product
	for _, p := range parsed.Products {
		if !uploadAllowed(p.Category) {
			res.Dropped = append(res.Dropped, p.Name)
			continue
		}
		p.ID = newID(uploadIDPrefix)
		p.FileName = fileName
		keep = append(keep, p)
	}

	if len(keep) > 0 {
		_, order, err := s.addProducts(ns, keep, func(o *store.Order) {
			o.IsFileUpload = true
			o.FileName = fileName
		})
		if err != nil {
			return nil, err
		}
		res.Added = keep
		res.Order = order
	}
	res.Message = importMessage(res)
	log.Info().Str("namespace", ns).Str("file", fileName).Int("added", len(res.Added)).Int("dropped", len(res.Dropped)).Int("skipped", res.Skipped).Msg("product file imported")
	return res, nil
}

func importMessage(r *ImportResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added %d product(s) from %s.", len(r.Added), r.FileName)
	if len(r.Dropped) > 0 {
		fmt.Fprintf(&b, " %d product(s) were not added because only women, men, kids and skincare items can go in your box.", len(r.Dropped))
	}
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " %d row(s) could not be read.", r.Skipped)
	}
	return b.String()
}
