package inventory

import "testing"

func TestValuation(t *testing.T) {
	var tr Tracker
	tr.Update(d("1"), d("100"))
	_, pnl := tr.Valuation(d("110"))
	if !pnl.Equal(d("10")) {
		t.Fatalf("expected pnl 10 got %s", pnl)
	}
}
