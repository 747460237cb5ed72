package market

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDepthUpdate(t *testing.T) {
	var d Depth
	d.Update(decimal.NewFromInt(100), decimal.NewFromInt(101))
	if d.Bid.String() != "100" || d.Ask.String() != "101" {
		t.Fatalf("unexpected depth: %+v", d)
	}
	// partial update keeps previous
	d.Update(decimal.Zero, decimal.NewFromInt(102))
	if d.Ask.String() != "102" || d.Bid.String() != "100" {
		t.Fatalf("partial update failed: %+v", d)
	}
	if d.Mid().String() != "101" {
		t.Fatalf("unexpected mid %s", d.Mid())
	}
}

func TestDepthMidMissingSide(t *testing.T) {
	d := Depth{Bid: decimal.NewFromInt(100)}
	if !d.Mid().IsZero() {
		t.Fatalf("expected zero mid, got %s", d.Mid())
	}
}
