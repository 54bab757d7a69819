package core

import (
	"regexp"
	"strings"
	"sync"

	"gwi.com/beauty-box/internal/store"
)

// UserProfile is built up from chat messages for the length of a session. It is
// never persisted.
type UserProfile struct {
	SkinType    string           `json:"skinType,omitempty"`
	Concerns    []string         `json:"concerns,omitempty"`
	AgeRange    string           `json:"ageRange,omitempty"`
	Preferences []string         `json:"preferences,omitempty"`
	Categories  []store.Category `json:"categories,omitempty"`
}

var (
	skinTypes = []string{"dry", "oily", "combination", "sensitive", "normal"}

	concernKeywords = map[string][]string{
		"acne":        {"acne", "breakout", "pimple", "blemish"},
		"aging":       {"wrinkle", "fine line", "aging", "ageing", "anti-age"},
		"dark spots":  {"dark spot", "hyperpigmentation", "pigment"},
		"redness":     {"redness", "rosacea"},
		"dullness":    {"dull", "glow"},
		"dehydration": {"dehydrated", "tight skin", "flaky"},
	}

	preferenceKeywords = map[string][]string{
		"vegan":          {"vegan"},
		"organic":        {"organic"},
		"cruelty-free":   {"cruelty free", "cruelty-free"},
		"fragrance-free": {"fragrance free", "fragrance-free", "unscented"},
		"sustainable":    {"sustainable", "eco-friendly", "eco friendly"},
	}

	ageDecade = regexp.MustCompile(`\b([1-9]0)s\b`)
	ageYears  = regexp.MustCompile(`\b([1-9][0-9]) ?(?:years? old|yo)\b`)
)

func (p *UserProfile) clone() *UserProfile {
	if p == nil {
		return &UserProfile{}
	}
	c := *p
	c.Concerns = append([]string(nil), p.Concerns...)
	c.Preferences = append([]string(nil), p.Preferences...)
	c.Categories = append([]store.Category(nil), p.Categories...)
	return &c
}

// Observe folds what can be learned from one lower-cased message into p.
func (p *UserProfile) Observe(text string) {
	for _, st := range skinTypes {
		if strings.Contains(text, st+" skin") {
			p.SkinType = st
		}
	}
	for concern, kws := range concernKeywords {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				p.Concerns = addUnique(p.Concerns, concern)
				break
			}
		}
	}
	for pref, kws := range preferenceKeywords {
		for _, kw := range kws {
			if strings.Contains(text, kw) {
				p.Preferences = addUnique(p.Preferences, pref)
				break
			}
		}
	}
	if m := ageDecade.FindStringSubmatch(text); m != nil {
		p.AgeRange = m[1] + "s"
	} else if m := ageYears.FindStringSubmatch(text); m != nil {
		p.AgeRange = m[1][:1] + "0s"
	}
}

// Visit records a category the customer looked at; repeats of the latest are ignored.
func (p *UserProfile) Visit(c store.Category) {
	if c == "" {
		return
	}
	if n := len(p.Categories); n > 0 && p.Categories[n-1] == c {
		return
	}
	p.Categories = append(p.Categories, c)
}

// LastCategory is the most recently visited category, if any.
func (p *UserProfile) LastCategory() store.Category {
	if p == nil || len(p.Categories) == 0 {
		return ""
	}
	return p.Categories[len(p.Categories)-1]
}

// Merge copies the fields other has set into p.
func (p *UserProfile) Merge(other *UserProfile) {
	if other == nil {
		return
	}
	if other.SkinType != "" {
		p.SkinType = other.SkinType
	}
	if other.AgeRange != "" {
		p.AgeRange = other.AgeRange
	}
	for _, c := range other.Concerns {
		p.Concerns = addUnique(p.Concerns, c)
	}
	for _, pr := range other.Preferences {
		p.Preferences = addUnique(p.Preferences, pr)
	}
	for _, c := range other.Categories {
		p.Visit(c)
	}
}

func (p *UserProfile) Empty() bool {
	return p == nil || (p.SkinType == "" && p.AgeRange == "" && len(p.Concerns) == 0 && len(p.Preferences) == 0 && len(p.Categories) == 0)
}

func addUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// ProfileTracker keeps one in-memory profile per session.
type ProfileTracker struct {
	mu       sync.Mutex
	profiles map[string]*UserProfile
}

func NewProfileTracker() *ProfileTracker {
	return &ProfileTracker{profiles: make(map[string]*UserProfile)}
}

// Update applies fn to the session's profile and returns a copy of the result.
func (t *ProfileTracker) Update(ns string, fn func(*UserProfile)) *UserProfile {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.profiles[ns]
	if !ok {
		p = &UserProfile{}
		t.profiles[ns] = p
	}
	fn(p)
	return p.clone()
}

func (t *ProfileTracker) Get(ns string) *UserProfile {
	return t.Update(ns, func(*UserProfile) {})
}

func (t *ProfileTracker) Reset(ns string) {
	t.mu.Lock()
	delete(t.profiles, ns)
	t.mu.Unlock()
}
