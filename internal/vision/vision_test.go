package vision

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fyndra/outfitscout/internal/models"
)

const fencedResponse = "Here is the outfit breakdown:\n```json\n" + `{
  "items": [
    {
      "item_type": "hoodie",
      "description": "oversized grey hoodie with front pocket",
      "brand_guess": "Acme",
      "color": "gray/white",
      "style_tags": ["casual", "streetwear"],
      "confidence": 0.9,
      "search_keywords": ["grey hoodie oversized"]
    },
    {
      "item_type": "sneakers",
      "description": "low white sneakers",
      "color": "white"
    },
    {
      "description": "something on the wrist",
      "color": "unknown",
      "confidence": 0.3
    }
  ],
  "overall_style": "casual",
  "season": "autumn",
  "gender": "unisex"
}` + "\n```\nLet me know if you want alternatives."

func TestParseAnalysisFenced(t *testing.T) {
	a := ParseAnalysis(fencedResponse)

	if len(a.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(a.Items))
	}
	if a.OverallStyle != "casual" || a.Season != "autumn" {
		t.Errorf("style/season = %q/%q", a.OverallStyle, a.Season)
	}
	if a.RawResponse != fencedResponse {
		t.Error("raw response must be carried through")
	}

	// Missing confidence defaults, missing item type becomes the
	// sentinel.
	if a.Items[1].Confidence != 0.8 {
		t.Errorf("default confidence = %v, want 0.8", a.Items[1].Confidence)
	}
	if a.Items[2].ItemType != models.Unknown {
		t.Errorf("item type = %q, want %q", a.Items[2].ItemType, models.Unknown)
	}
	if a.Items[0].Confidence != 0.9 {
		t.Errorf("explicit confidence = %v, want 0.9", a.Items[0].Confidence)
	}
}

func TestParseAnalysisBareJSON(t *testing.T) {
	a := ParseAnalysis(`{"items":[{"item_type":"dress","color":"red"}],"overall_style":"formal"}`)
	if len(a.Items) != 1 || a.Items[0].ItemType != "dress" {
		t.Fatalf("items = %+v", a.Items)
	}
}

func TestParseAnalysisGarbage(t *testing.T) {
	raw := "I cannot see any clothing in this image."
	a := ParseAnalysis(raw)
	if len(a.Items) != 0 {
		t.Errorf("items = %d, want 0", len(a.Items))
	}
	if a.RawResponse != raw {
		t.Error("raw text must survive an unparseable response")
	}
}

func TestSearchText(t *testing.T) {
	tests := []struct {
		name string
		item IdentifiedItem
		want string
	}{
		{
			name: "full",
			item: IdentifiedItem{ItemType: "hoodie", BrandGuess: "Acme", Color: "gray/white"},
			want: "Acme hoodie gray",
		},
		{
			name: "no brand",
			item: IdentifiedItem{ItemType: "sneakers", Color: "white"},
			want: "sneakers white",
		},
		{
			name: "unknown color dropped",
			item: IdentifiedItem{ItemType: "jacket", Color: "multi"},
			want: "jacket",
		},
		{
			name: "unknown type dropped",
			item: IdentifiedItem{ItemType: models.Unknown, Color: "navy, white"},
			want: "navy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SearchText(tt.item); got != tt.want {
				t.Errorf("SearchText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryFromItem(t *testing.T) {
	q := Query(IdentifiedItem{
		ItemType:   "hoodie",
		BrandGuess: "Acme",
		Color:      "gray/white",
		StyleTags:  []string{"casual"},
	})
	if q.Category != "hoodie" || q.Brand != "Acme" || q.Color != "gray" {
		t.Errorf("query = %+v", q)
	}
}

func TestOutfitRequestConfidenceFloor(t *testing.T) {
	a := ParseAnalysis(fencedResponse)

	req, err := OutfitRequest(a, decimal.NewFromInt(2000), "SEK", 0.5)
	if err != nil {
		t.Fatalf("OutfitRequest: %v", err)
	}
	// The low-confidence wrist item and anything without a type drop
	// out.
	if len(req.Slots) != 2 {
		t.Fatalf("slots = %+v, want 2", req.Slots)
	}
	if req.Slots[0].Category != "hoodie" || req.Slots[1].Category != "sneakers" {
		t.Errorf("slot categories = %s/%s", req.Slots[0].Category, req.Slots[1].Category)
	}
	if req.Slots[0].Brand != "Acme" {
		t.Errorf("slot brand = %q, want Acme", req.Slots[0].Brand)
	}

	if _, err := OutfitRequest(a, decimal.NewFromInt(2000), "SEK", 0.95); err == nil {
		t.Error("a floor above every confidence must fail")
	}
}
