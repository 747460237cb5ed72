package order

import "testing"

func TestStatusConstants(t *testing.T) {
	if StatusNew == "" || StatusFilled == "" {
		t.Fatalf("status constants not set")
	}
	if !StatusAck.IsActive() || StatusFilled.IsActive() {
		t.Fatalf("unexpected active states")
	}
	if !StatusRejected.IsFinal() || StatusPartial.IsFinal() {
		t.Fatalf("unexpected final states")
	}
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusNew, StatusAck, true},
		{StatusAck, StatusPartial, true},
		{StatusPartial, StatusFilled, true},
		{StatusAck, StatusAck, true},
		{StatusFilled, StatusCanceled, false},
		{StatusCanceled, StatusAck, false},
		{StatusRejected, StatusNew, false},
	}
	for _, tt := range tests {
		err := ValidateTransition(tt.from, tt.to)
		if (err == nil) != tt.ok {
			t.Fatalf("%s -> %s: expected ok=%v got %v", tt.from, tt.to, tt.ok, err)
		}
	}
}

func TestOrderRemaining(t *testing.T) {
	o := Order{Price: d("100"), Quantity: d("1"), Filled: d("1.5")}
	if !o.Remaining().IsZero() {
		t.Fatalf("overfill must clamp remaining to zero")
	}
	if o.Notional().String() != "100" {
		t.Fatalf("unexpected notional %s", o.Notional())
	}
}
