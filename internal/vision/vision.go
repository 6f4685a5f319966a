// Package vision parses the output of an external vision service that
// identifies clothing items in an image, and derives search queries and
// outfit requests from it. The model call itself happens elsewhere;
// this package treats its output as untrusted best-effort text.
package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
	"github.com/fyndra/outfitscout/internal/shop"
)

// IdentifiedItem is one clothing item the vision service recognized.
type IdentifiedItem struct {
	ItemType       string   `json:"item_type"`
	Description    string   `json:"description"`
	BrandGuess     string   `json:"brand_guess,omitempty"`
	Color          string   `json:"color"`
	Pattern        string   `json:"pattern,omitempty"`
	MaterialGuess  string   `json:"material_guess,omitempty"`
	StyleTags      []string `json:"style_tags,omitempty"`
	Confidence     float64  `json:"confidence"`
	SearchKeywords []string `json:"search_keywords,omitempty"`
}

// OutfitAnalysis is the full identification result for one image.
type OutfitAnalysis struct {
	Items        []IdentifiedItem `json:"items"`
	OverallStyle string           `json:"overall_style"`
	Occasion     string           `json:"occasion,omitempty"`
	Season       string           `json:"season,omitempty"`
	Gender       string           `json:"gender,omitempty"`
	AgeGroup     string           `json:"age_group,omitempty"`
	RawResponse  string           `json:"-"`
}

// ParseAnalysis decodes a vision-service response. Models habitually
// wrap their JSON in markdown code fences, so those are stripped first.
// A response with no parseable JSON yields an empty analysis carrying
// the raw text, not an error: downstream treats missing items as "no
// outfit recognized".
func ParseAnalysis(raw string) *OutfitAnalysis {
	jsonStr := extractFencedJSON(raw)

	var analysis OutfitAnalysis
	if err := json.Unmarshal([]byte(jsonStr), &analysis); err != nil {
		return &OutfitAnalysis{RawResponse: raw}
	}
	for i := range analysis.Items {
		if analysis.Items[i].Confidence == 0 {
			analysis.Items[i].Confidence = 0.8
		}
		if analysis.Items[i].ItemType == "" {
			analysis.Items[i].ItemType = models.Unknown
		}
	}
	analysis.RawResponse = raw
	return &analysis
}

func extractFencedJSON(raw string) string {
	if i := strings.Index(raw, "```json"); i >= 0 {
		rest := raw[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(raw, "```"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(raw)
}

// SearchText builds a compact free-text query for one identified item:
// brand first, then category, then the primary color.
func SearchText(item IdentifiedItem) string {
	var parts []string
	if item.BrandGuess != "" {
		parts = append(parts, item.BrandGuess)
	}
	if item.ItemType != "" && item.ItemType != models.Unknown {
		parts = append(parts, item.ItemType)
	}
	if c := primaryColor(item.Color); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, " ")
}

// Query converts one identified item into a shop search query.
func Query(item IdentifiedItem) shop.Query {
	return shop.Query{
		Text:      SearchText(item),
		Category:  item.ItemType,
		Brand:     item.BrandGuess,
		Color:     primaryColor(item.Color),
		StyleTags: item.StyleTags,
	}
}

// OutfitRequest turns an analysis into an optimizer request, one slot
// per identified item. Items below the confidence floor are skipped.
func OutfitRequest(analysis *OutfitAnalysis, budget decimal.Decimal, currency string, minConfidence float64) (models.OutfitRequest, error) {
	var slots []models.CategorySlot
	for _, item := range analysis.Items {
		if item.Confidence < minConfidence {
			continue
		}
		if item.ItemType == "" || item.ItemType == models.Unknown {
			continue
		}
		slots = append(slots, models.CategorySlot{
			Category:  item.ItemType,
			Brand:     item.BrandGuess,
			StyleTags: item.StyleTags,
		})
	}
	if len(slots) == 0 {
		return models.OutfitRequest{}, fmt.Errorf("no usable items in outfit analysis")
	}
	return models.OutfitRequest{
		Slots:    slots,
		Budget:   budget,
		Currency: currency,
	}, nil
}

// primaryColor collapses multi-color descriptions ("cream/beige",
// "navy, white") to their first color, dropping unknown markers.
func primaryColor(color string) string {
	c := strings.TrimSpace(color)
	switch strings.ToLower(c) {
	case "", "unknown", "multi", "multicolor":
		return ""
	}
	c = strings.Split(c, "/")[0]
	c = strings.Split(c, ",")[0]
	return strings.TrimSpace(c)
}
