package core

import (
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"gwi.com/beauty-box/internal/catalog"
	"gwi.com/beauty-box/internal/store"
)

type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentAddToCart          Intent = "add_to_cart"
	IntentRemoveFromCart     Intent = "remove_from_cart"
	IntentAlternatives       Intent = "alternatives"
	IntentCheckout           Intent = "checkout"
	IntentOrderHistory       Intent = "order_history"
	IntentManageSubscription Intent = "manage_subscription"
	IntentBrowse             Intent = "browse"
	IntentFallback           Intent = "fallback"
)

// Action tells the client what to do after showing a reply.
type Action string

const (
	ActionAddToCart          Action = "add_to_cart"
	ActionRemoveFromCart     Action = "remove_from_cart"
	ActionCheckout           Action = "checkout"
	ActionOrderHistory       Action = "order_history"
	ActionManageSubscription Action = "manage_subscription"
)

// Reply is what the dispatcher answers to one message.
type Reply struct {
	Text      string
	Products  []store.Product
	Category  store.Category
	Action    Action
	AddToCart bool
	Intent    Intent
}

// Query is one chat message plus the context the rules may look at.
type Query struct {
	Message string
	Cart    []store.CartItem
	Profile *UserProfile
}

// turn is a Query prepared for matching.
type turn struct {
	Query
	text     string
	words    []string
	category store.Category
}

// Rule pairs a predicate with the reply it produces. Rules are tried in order
// and the first match answers.
type Rule struct {
	Intent Intent
	Match  func(t *turn) bool
	Handle func(ctx context.Context, t *turn) Reply
}

type categoryKeywords struct {
	category store.Category
	words    []string
}

// categoryOrder decides which category wins when a message names several.
var categoryOrder = []categoryKeywords{
	{store.CategoryWomen, []string{"women", "woman", "womens", "ladies", "lady", "dress", "suit", "skirt", "blouse"}},
	{store.CategoryLaptops, []string{"laptop", "computer", "macbook", "notebook", "thinkpad", "zenbook"}},
	{store.CategoryMen, []string{"men", "man", "mens", "gentleman", "gentlemen", "guy"}},
	{store.CategoryKids, []string{"kid", "kids", "child", "children", "girl", "boy", "toddler", "baby"}},
	{store.CategorySkincare, []string{"skin", "skincare", "serum", "moisturizer", "moisturiser", "cleanser", "sunscreen", "spf", "cream", "retinol"}},
}

var categoryIntros = map[store.Category]string{
	store.CategoryWomen:    "Here are some of our favourite pieces for women:",
	store.CategoryMen:      "Here's what we have for men right now:",
	store.CategoryKids:     "These are popular with our younger customers:",
	store.CategoryLaptops:  "Looking for a new laptop? Take a look at these:",
	store.CategorySkincare: "Here are some skincare products I'd recommend:",
}

var greetingReplies = []string{
	"Hi there! I'm Glow, your beauty box assistant. Ask me for recommendations or tell me what to add to your cart.",
	"Hello! Looking for something for your box today? I can suggest skincare, clothing and more.",
	"Hey! I'm doing great, thanks for asking. What can I help you find?",
}

var (
	cartWords        = []string{"cart", "box", "basket"}
	checkoutWords    = []string{"checkout", "buy", "purchase"}
	alternativeWords = []string{"alternative", "alternatives", "similar", "instead"}
	nameStopWords    = map[string]bool{"with": true, "from": true, "pack": true}
)

const (
	maxSuggestions         = 3
	defaultFallbackTimeout = 20 * time.Second
)

// Dispatcher maps chat messages to intents and replies.
type Dispatcher struct {
	catalog *catalog.Catalog
	gen     TextGenerator
	timeout time.Duration
	pick    func(n int) int
	rules   []Rule
}

// NewDispatcher builds a dispatcher over c. gen may be nil, in which case the
// fallback always answers with a canned line.
func NewDispatcher(c *catalog.Catalog, gen TextGenerator, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultFallbackTimeout
	}
	d := &Dispatcher{catalog: c, gen: gen, timeout: timeout, pick: rand.Intn}
	d.rules = d.defaultRules()
	return d
}

// Rules lists the intents in the order they are tried.
func (d *Dispatcher) Rules() []Intent {
	out := make([]Intent, len(d.rules))
	for i, r := range d.rules {
		out[i] = r.Intent
	}
	return out
}

func (d *Dispatcher) defaultRules() []Rule {
	return []Rule{
		{IntentGreeting, isGreeting, d.greet},
		{IntentAddToCart, func(t *turn) bool { return t.has("add") && t.hasAny(cartWords...) }, d.addToCart},
		{IntentRemoveFromCart, func(t *turn) bool { return t.has("remove") && t.hasAny(cartWords...) }, d.removeFromCart},
		{IntentAlternatives, func(t *turn) bool {
			return t.hasAny(alternativeWords...) || strings.Contains(t.text, "other options")
		}, d.alternatives},
		{IntentCheckout, func(t *turn) bool {
			return t.hasAny(checkoutWords...) || strings.Contains(t.text, "check out")
		}, d.checkout},
		{IntentOrderHistory, func(t *turn) bool { return t.has("order") && t.has("history") }, d.orderHistory},
		{IntentManageSubscription, func(t *turn) bool {
			return t.has("subscription") && t.hasAny("manage", "change")
		}, d.manageSubscription},
		{IntentBrowse, func(t *turn) bool { return t.category != "" }, d.browse},
		{IntentFallback, func(*turn) bool { return true }, d.fallback},
	}
}

// Dispatch answers q. It never returns an empty reply.
func (d *Dispatcher) Dispatch(ctx context.Context, q Query) Reply {
	t := newTurn(q)
	for _, r := range d.rules {
		if !r.Match(t) {
			continue
		}
		reply := r.Handle(ctx, t)
		reply.Intent = r.Intent
		intentsTotal.WithLabelValues(string(r.Intent)).Inc()
		return reply
	}
	// unreachable while the fallback rule is last
	return Reply{Text: cannedFallbacks[0], Intent: IntentFallback}
}

func newTurn(q Query) *turn {
	text := strings.ToLower(strings.TrimSpace(q.Message))
	t := &turn{Query: q, text: text, words: tokenize(text)}
	t.category = InferCategory(text)
	return t
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchesWord reports whether w is kw or a plural of it.
func matchesWord(w, kw string) bool {
	return w == kw || w == kw+"s" || w == kw+"es"
}

func (t *turn) has(kw string) bool {
	for _, w := range t.words {
		if matchesWord(w, kw) {
			return true
		}
	}
	return false
}

func (t *turn) hasAny(kws ...string) bool {
	for _, kw := range kws {
		if t.has(kw) {
			return true
		}
	}
	return false
}

// InferCategory returns the first category, in fixed order, with a keyword in
// the lower-cased text, or "" when none matches.
func InferCategory(text string) store.Category {
	t := &turn{words: tokenize(strings.ToLower(text))}
	for _, ck := range categoryOrder {
		if t.hasAny(ck.words...) {
			return ck.category
		}
	}
	return ""
}

func isGreeting(t *turn) bool {
	if strings.Contains(t.text, "how are you") || strings.Contains(t.text, "good morning") {
		return true
	}
	for _, w := range t.words {
		switch w {
		case "hi", "hello", "hey", "hiya":
			return true
		}
	}
	return false
}

func (d *Dispatcher) greet(_ context.Context, t *turn) Reply {
	if strings.Contains(t.text, "how are you") {
		return Reply{Text: greetingReplies[2]}
	}
	return Reply{Text: greetingReplies[d.pick(2)]}
}

func (d *Dispatcher) addToCart(_ context.Context, t *turn) Reply {
	if found := d.exactMatches(t); len(found) > 0 {
		return Reply{
			Text:      "Great choice! I've added " + joinNames(found) + " to your cart.",
			Products:  found,
			Category:  found[0].Category,
			Action:    ActionAddToCart,
			AddToCart: true,
		}
	}
	if found := partialMatches(t, d.catalog.All()); len(found) > 0 {
		pronoun := "it"
		if len(found) > 1 {
			pronoun = "them"
		}
		return Reply{
			Text:      "I think you mean " + joinNames(found) + ". I've added " + pronoun + " to your cart.",
			Products:  found,
			Category:  found[0].Category,
			Action:    ActionAddToCart,
			AddToCart: true,
		}
	}
	if t.category != "" {
		return Reply{
			Text:     "I couldn't find that exact product. Which of these would you like me to add?",
			Products: firstN(d.catalog.ByCategory(t.category), maxSuggestions),
			Category: t.category,
		}
	}
	return Reply{
		Text:     "Which product would you like me to add to your cart? Try using its name, for example \"add the Hydrating Hyaluronic Serum to my cart\".",
		Products: []store.Product{},
	}
}

func (d *Dispatcher) exactMatches(t *turn) []store.Product {
	var out []store.Product
	for _, p := range d.catalog.All() {
		if strings.Contains(t.text, strings.ToLower(p.Name)) {
			out = append(out, p.WithDisplayImage())
		}
	}
	return out
}

// partialMatches scores products by how many significant name tokens appear in
// the message and keeps the best scorers.
func partialMatches(t *turn, products []store.Product) []store.Product {
	best := 0
	var out []store.Product
	for _, p := range products {
		score := 0
		for _, tok := range tokenize(strings.ToLower(p.Name)) {
			if len(tok) > 3 && !nameStopWords[tok] && t.has(tok) {
				score++
			}
		}
		switch {
		case score == 0 || score < best:
		case score > best:
			best = score
			out = []store.Product{p.WithDisplayImage()}
		default:
			out = append(out, p.WithDisplayImage())
		}
	}
	return firstN(out, maxSuggestions)
}

func (d *Dispatcher) removeFromCart(_ context.Context, t *turn) Reply {
	inCart := make([]store.Product, len(t.Cart))
	for i, it := range t.Cart {
		inCart[i] = it.Product
	}
	var target *store.Product
	for i := range inCart {
		if strings.Contains(t.text, strings.ToLower(inCart[i].Name)) {
			target = &inCart[i]
			break
		}
	}
	if target == nil {
		if found := partialMatches(t, inCart); len(found) == 1 {
			target = &found[0]
		}
	}
	if target == nil {
		return Reply{Text: "I couldn't find that in your cart. Which item would you like me to remove?"}
	}
	return Reply{
		Text:     "Done! I've removed " + target.Name + " from your cart.",
		Products: []store.Product{target.WithDisplayImage()},
		Category: target.Category,
		Action:   ActionRemoveFromCart,
	}
}

func (d *Dispatcher) alternatives(_ context.Context, t *turn) Reply {
	cat := t.category
	if cat == "" {
		cat = t.Profile.LastCategory()
	}
	if cat == "" {
		return Reply{Text: "Alternatives to what? Tell me which kind of product you're looking at and I'll suggest a few."}
	}
	var out []store.Product
	for _, p := range d.catalog.ByCategory(cat) {
		if !inCart(t.Cart, p.ID) {
			out = append(out, p.WithDisplayImage())
		}
	}
	if len(out) == 0 {
		return Reply{Text: "You already have everything we carry in " + string(cat) + " in your cart!", Category: cat}
	}
	return Reply{
		Text:     "Here are a few alternatives you might like:",
		Products: firstN(out, maxSuggestions),
		Category: cat,
	}
}

func (d *Dispatcher) checkout(context.Context, *turn) Reply {
	return Reply{Text: "Ready when you are! Taking you to checkout.", Action: ActionCheckout}
}

func (d *Dispatcher) orderHistory(context.Context, *turn) Reply {
	return Reply{Text: "Here's your order history.", Action: ActionOrderHistory}
}

func (d *Dispatcher) manageSubscription(context.Context, *turn) Reply {
	return Reply{Text: "Let's update your subscription. You can change your plan or swap products.", Action: ActionManageSubscription}
}

func (d *Dispatcher) browse(_ context.Context, t *turn) Reply {
	products := d.catalog.ByCategory(t.category)
	for i := range products {
		products[i] = products[i].WithDisplayImage()
	}
	return Reply{Text: categoryIntros[t.category], Products: products, Category: t.category}
}

func (d *Dispatcher) fallback(ctx context.Context, t *turn) Reply {
	if d.gen == nil {
		fallbackTotal.WithLabelValues("no_generator").Inc()
		return Reply{Text: d.canned()}
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	text, err := d.gen.GenerateReply(ctx, t.Message, t.Profile)
	if err != nil {
		log.Warn().Err(err).Msg("text generator failed, using canned reply")
		fallbackTotal.WithLabelValues("error").Inc()
		return Reply{Text: d.canned()}
	}
	if text = strings.TrimSpace(text); text == "" {
		fallbackTotal.WithLabelValues("empty").Inc()
		return Reply{Text: d.canned()}
	}
	return Reply{Text: text}
}

func (d *Dispatcher) canned() string {
	return cannedFallbacks[d.pick(len(cannedFallbacks))]
}

func inCart(items []store.CartItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func firstN(products []store.Product, n int) []store.Product {
	if len(products) > n {
		return products[:n]
	}
	return products
}

func joinNames(products []store.Product) string {
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	switch len(names) {
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
