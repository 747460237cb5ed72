package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTrackerUpdate(t *testing.T) {
	var tr Tracker
	tr.Update(d("1"), d("100"))
	if !tr.NetExposure().Equal(d("1")) {
		t.Fatalf("expected net 1")
	}
	if !tr.AvgCost().Equal(d("100")) {
		t.Fatalf("expected cost 100 got %s", tr.AvgCost())
	}
	tr.Update(d("1"), d("110"))
	if !tr.AvgCost().Equal(d("105")) {
		t.Fatalf("expected avg cost 105 got %s", tr.AvgCost())
	}
}

func TestTrackerRealizesOnReduce(t *testing.T) {
	var tr Tracker
	tr.Update(d("2"), d("100"))
	tr.Update(d("-1"), d("110"))
	if !tr.RealizedPnL().Equal(d("10")) {
		t.Fatalf("expected realized 10 got %s", tr.RealizedPnL())
	}
	if !tr.AvgCost().Equal(d("100")) {
		t.Fatalf("partial close must keep cost, got %s", tr.AvgCost())
	}

	// 翻转为空头
	tr.Update(d("-2"), d("90"))
	if !tr.NetExposure().Equal(d("-1")) {
		t.Fatalf("expected net -1 got %s", tr.NetExposure())
	}
	if !tr.AvgCost().Equal(d("90")) {
		t.Fatalf("expected cost 90 after flip got %s", tr.AvgCost())
	}
	if !tr.RealizedPnL().Equal(d("0")) {
		t.Fatalf("expected realized 0 got %s", tr.RealizedPnL())
	}

	tr.Update(d("1"), d("80"))
	if !tr.NetExposure().IsZero() || !tr.AvgCost().IsZero() {
		t.Fatalf("expected flat position")
	}
	if !tr.RealizedPnL().Equal(d("10")) {
		t.Fatalf("expected realized 10 got %s", tr.RealizedPnL())
	}
}
