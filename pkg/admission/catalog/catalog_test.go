package catalog

import (
	"testing"
	"time"
)

func TestDefault_FreeConversion(t *testing.T) {
	c := Default()

	settings := c.Lookup(TierFree, PolicyConversion)
	if settings.PermitLimit != 50 {
		t.Errorf("Expected permit limit 50, got %d", settings.PermitLimit)
	}
	if settings.Window != 60*time.Minute {
		t.Errorf("Expected 60m window, got %s", settings.Window)
	}
}

func TestNew_OverridesCell(t *testing.T) {
	c := New(map[Tier]map[Policy]PolicySettings{
		TierPremium: {
			PolicyConversion: {PermitLimit: 750, Window: 30 * time.Minute},
		},
	})

	got := c.Lookup(TierPremium, PolicyConversion)
	if got.PermitLimit != 750 || got.Window != 30*time.Minute {
		t.Errorf("Expected configured cell 750/30m, got %s", got)
	}

	// Untouched cells keep compiled-in defaults
	free := c.Lookup(TierFree, PolicyStandard)
	if free.PermitLimit != 30 || free.Window != time.Minute {
		t.Errorf("Expected default cell 30/1m, got %s", free)
	}
}

func TestNew_IgnoresUnknownNames(t *testing.T) {
	c := New(map[Tier]map[Policy]PolicySettings{
		Tier("platinum"): {
			PolicyStandard: {PermitLimit: 1, Window: time.Second},
		},
		TierFree: {
			Policy("bulk"): {PermitLimit: 1, Window: time.Second},
		},
	})

	got := c.Lookup(TierFree, PolicyStandard)
	if got.PermitLimit != 30 {
		t.Errorf("Unknown config names should not disturb defaults, got %s", got)
	}
}

func TestLookup_UnknownFallsBack(t *testing.T) {
	c := Default()

	// Unknown tier resolves as Free
	got := c.Lookup(Tier("platinum"), PolicyConversion)
	want := c.Lookup(TierFree, PolicyConversion)
	if got != want {
		t.Errorf("Expected unknown tier to resolve as free: got %s, want %s", got, want)
	}

	// Unknown policy resolves as standard
	got = c.Lookup(TierPremium, Policy("bulk"))
	want = c.Lookup(TierPremium, PolicyStandard)
	if got != want {
		t.Errorf("Expected unknown policy to resolve as standard: got %s, want %s", got, want)
	}
}

func TestNormalizePolicy(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Policy
	}{
		{"standard", "standard", PolicyStandard},
		{"conversion", "conversion", PolicyConversion},
		{"unknown degrades to standard", "bulk-export", PolicyStandard},
		{"empty degrades to standard", "", PolicyStandard},
		{"case sensitive", "Conversion", PolicyStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePolicy(tt.in); got != tt.want {
				t.Errorf("NormalizePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidPolicy(t *testing.T) {
	if !ValidPolicy("standard") || !ValidPolicy("conversion") {
		t.Error("Expected recognized policies to be valid")
	}
	if ValidPolicy("bulk") || ValidPolicy("") {
		t.Error("Expected unrecognized policies to be invalid")
	}
}
