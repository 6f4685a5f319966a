package aggregate

import (
	"sort"
	"strings"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

// categorySynonyms maps a requested category to the terms that count as
// a match in listing text. Fashion vocabulary is loose: a "hoodie"
// search must hit "hooded sweatshirt".
var categorySynonyms = map[string][]string{
	"hoodie":  {"hoodie", "hooded", "pullover", "sweatshirt"},
	"jacket":  {"jacket", "coat", "blazer", "parka", "bomber"},
	"pants":   {"pants", "trousers", "jeans", "chinos"},
	"shirt":   {"shirt", "blouse", "top", "tee", "t-shirt"},
	"shoes":   {"shoes", "sneakers", "boots", "trainers", "footwear"},
	"sweater": {"sweater", "jumper", "knit", "cardigan", "pullover"},
	"dress":   {"dress", "gown"},
	"skirt":   {"skirt"},
	"shorts":  {"shorts"},
}

// colorSynonyms includes Swedish color words since several sources feed
// Swedish product text.
var colorSynonyms = map[string][]string{
	"black": {"black", "noir", "svart"},
	"white": {"white", "cream", "ivory", "vit"},
	"blue":  {"blue", "navy", "cobalt", "blå"},
	"red":   {"red", "crimson", "röd"},
	"green": {"green", "olive", "grön"},
	"gray":  {"gray", "grey", "charcoal", "grå"},
	"brown": {"brown", "tan", "camel", "brun"},
	"pink":  {"pink", "rose", "rosa"},
	"beige": {"beige", "sand", "khaki"},
}

// Relevance scores a listing against a query in [0,1]. Weights: brand
// 0.35, category 0.25, query terms 0.20, color 0.10, style tags 0.05,
// size availability 0.05.
func Relevance(l models.Listing, q shop.Query) float64 {
	score := 0.0

	queryLower := strings.ToLower(q.Text)
	var terms []string
	for _, t := range strings.Fields(queryLower) {
		if len(t) > 1 {
			terms = append(terms, t)
		}
	}

	name := strings.ToLower(l.Name)
	brand := strings.ToLower(l.Brand)
	category := strings.ToLower(l.Category)
	color := strings.ToLower(l.Color)
	text := name + " " + brand + " " + strings.ToLower(l.Description) + " " + category

	// Brand: the decisive signal for fashion search.
	brandScore := 0.0
	if q.Brand != "" {
		qb := strings.ToLower(q.Brand)
		if brand != "" && brand != models.Unknown {
			if qb == brand {
				brandScore = 0.35
			} else if strings.Contains(brand, qb) || strings.Contains(qb, brand) {
				brandScore = 0.25
			}
		}
	} else {
		for _, t := range terms {
			if strings.Contains(brand, t) {
				brandScore = max(brandScore, 0.30)
			} else if brand != "" && strings.Contains(text, t) {
				brandScore = max(brandScore, 0.10)
			}
		}
	}
	score += brandScore

	// Category.
	catScore := 0.0
	if q.Category != "" {
		for _, syn := range synonymsFor(categorySynonyms, strings.ToLower(q.Category)) {
			if strings.Contains(name, syn) || strings.Contains(category, syn) {
				catScore = 0.25
				break
			}
		}
	} else {
		for _, t := range terms {
			for _, syn := range synonymsFor(categorySynonyms, t) {
				if strings.Contains(name, syn) || strings.Contains(category, syn) {
					catScore = max(catScore, 0.20)
				}
			}
		}
	}
	score += catScore

	// Query terms.
	if len(terms) > 0 {
		matched := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				matched++
			}
		}
		score += float64(matched) / float64(len(terms)) * 0.20
	}

	// Color.
	colorScore := 0.0
	if q.Color != "" {
		for _, syn := range synonymsFor(colorSynonyms, strings.ToLower(q.Color)) {
			if strings.Contains(color, syn) || strings.Contains(name, syn) {
				colorScore = 0.10
				break
			}
		}
	} else {
		for _, t := range terms {
			if color != "" && strings.Contains(color, t) {
				colorScore = max(colorScore, 0.08)
			}
		}
	}
	score += colorScore

	// Style tags.
	if len(q.StyleTags) > 0 {
		matched := 0
		for _, tag := range q.StyleTags {
			if strings.Contains(text, strings.ToLower(tag)) {
				matched++
			}
		}
		score += float64(matched) / float64(len(q.StyleTags)) * 0.05
	}

	// Size availability.
	if q.Size != "" {
		for _, s := range l.Sizes {
			if strings.EqualFold(s, q.Size) {
				score += 0.05
				break
			}
		}
	}

	return min(score, 1.0)
}

// ByRelevance reorders candidates best-first for a query. The sort is
// stable, so equal scores keep the incoming (Rank) order and the result
// is deterministic.
func ByRelevance(candidates []Candidate, q shop.Query) []Candidate {
	type scored struct {
		c     Candidate
		score float64
	}
	ss := make([]scored, len(candidates))
	for i, c := range candidates {
		ss[i] = scored{c: c, score: Relevance(c.Listing, q)}
	}
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].score > ss[j].score })

	out := make([]Candidate, len(ss))
	for i, s := range ss {
		out[i] = s.c
	}
	return out
}

func synonymsFor(table map[string][]string, key string) []string {
	if syns, ok := table[key]; ok {
		return syns
	}
	return []string{key}
}
