package domain

import (
	"errors"
	"testing"
	"time"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"draft to confirmed", OrderStatusDraft, OrderStatusConfirmed, true},
		{"confirmed to closed", OrderStatusConfirmed, OrderStatusClosed, true},
		{"draft to closed skips confirmation", OrderStatusDraft, OrderStatusClosed, false},
		{"confirmed back to draft", OrderStatusConfirmed, OrderStatusDraft, false},
		{"closed is terminal", OrderStatusClosed, OrderStatusDraft, false},
		{"closed to confirmed", OrderStatusClosed, OrderStatusConfirmed, false},
		{"draft to draft", OrderStatusDraft, OrderStatusDraft, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, status := range []OrderStatus{OrderStatusDraft, OrderStatusConfirmed, OrderStatusClosed} {
		if !status.Valid() {
			t.Fatalf("expected status %s to be valid", status)
		}
	}
	if OrderStatus("shipped").Valid() {
		t.Fatal("expected unknown status to be invalid")
	}
}

func TestOrder_ValidateInvariants(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	valid := Order{
		ID:        "order-1",
		TenantID:  "tenant-1",
		Status:    OrderStatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := valid.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no invariant violations, got %v", errs)
	}

	total := int64(500)
	negative := int64(-1)

	cases := []struct {
		name    string
		mutate  func(o *Order)
		wantErr error
	}{
		{"missing tenant", func(o *Order) { o.TenantID = "" }, ErrTenantRequired},
		{"unknown status", func(o *Order) { o.Status = "shipped" }, ErrStatusInvalid},
		{"zero version", func(o *Order) { o.Version = 0 }, ErrVersionInvalid},
		{"negative total", func(o *Order) {
			o.Status = OrderStatusConfirmed
			o.TotalCents = &negative
		}, ErrTotalCentsNegative},
		{"total set on draft", func(o *Order) { o.TotalCents = &total }, ErrTotalCentsPremature},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			order := valid
			tc.mutate(&order)

			errs := order.ValidateInvariants()
			if len(errs) == 0 {
				t.Fatal("expected invariant violation")
			}
			found := false
			for _, err := range errs {
				if errors.Is(err, tc.wantErr) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %v among violations, got %v", tc.wantErr, errs)
			}
		})
	}
}

func TestVersionMismatchError_Is(t *testing.T) {
	t.Parallel()

	err := &VersionMismatchError{Expected: 2, Current: 5}
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatal("expected VersionMismatchError to match ErrVersionMismatch")
	}
	if !IsVersionMismatch(err) {
		t.Fatal("expected IsVersionMismatch to report true")
	}

	var typed *VersionMismatchError
	if !errors.As(err, &typed) {
		t.Fatal("expected errors.As to extract VersionMismatchError")
	}
	if typed.Expected != 2 || typed.Current != 5 {
		t.Fatalf("unexpected versions in error: expected=%d current=%d", typed.Expected, typed.Current)
	}
}

func TestStatusTransitionError_Is(t *testing.T) {
	t.Parallel()

	err := &StatusTransitionError{From: OrderStatusDraft, To: OrderStatusClosed}
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatal("expected StatusTransitionError to match ErrInvalidStatusTransition")
	}

	var typed *StatusTransitionError
	if !errors.As(err, &typed) {
		t.Fatal("expected errors.As to extract StatusTransitionError")
	}
	if typed.From != OrderStatusDraft || typed.To != OrderStatusClosed {
		t.Fatalf("unexpected transition in error: %s -> %s", typed.From, typed.To)
	}
}
