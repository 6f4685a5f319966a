package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadFromEnvDutyRates(t *testing.T) {
	t.Setenv("OUTFITSCOUT_DUTY_CLOTHING", "0.10")
	t.Setenv("OUTFITSCOUT_DUTY_FOOTWEAR", "0.07")
	t.Setenv("OUTFITSCOUT_DUTY_ACCESSORIES", "0.03")
	t.Setenv("OUTFITSCOUT_DUTY_DEFAULT", "0.06")

	c := DefaultConfig()
	c.LoadFromEnv()

	want := map[string]struct {
		got  decimal.Decimal
		want string
	}{
		"clothing":    {c.DutyClothing, "0.10"},
		"footwear":    {c.DutyFootwear, "0.07"},
		"accessories": {c.DutyAccessories, "0.03"},
		"default":     {c.DutyDefault, "0.06"},
	}
	for name, tt := range want {
		if !tt.got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("duty %s = %s, want %s", name, tt.got, tt.want)
		}
	}
}

func TestLoadFromEnvIgnoresNegativeRates(t *testing.T) {
	t.Setenv("OUTFITSCOUT_VAT_RATE", "-0.25")
	t.Setenv("OUTFITSCOUT_DUTY_CLOTHING", "-1")

	c := DefaultConfig()
	c.LoadFromEnv()

	if !c.VATRate.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("VATRate = %s, want the 0.25 default kept", c.VATRate)
	}
	if !c.DutyClothing.Equal(decimal.NewFromFloat(0.12)) {
		t.Errorf("DutyClothing = %s, want the 0.12 default kept", c.DutyClothing)
	}
}
