package domain

import (
	"errors"
	"testing"
)

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "Processing", " shipped ", "DELIVERED", "cancelled"} {
		if _, err := ParseOrderStatus(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	if _, err := ParseOrderStatus("lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseProviderStatusRestrictedSet(t *testing.T) {
	for _, raw := range []string{"processing", "shipped", "delivered"} {
		if _, err := ParseProviderStatus(raw); err != nil {
			t.Fatalf("expected %q allowed for providers, got %v", raw, err)
		}
	}
	for _, raw := range []string{"pending", "cancelled", "lost"} {
		if _, err := ParseProviderStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected %q rejected for providers", raw)
		}
	}
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name  string
		lines []OrderLine
		want  OrderStatus
	}{
		{"no lines", nil, StatusPending},
		{"all pending", []OrderLine{{ProviderStatus: StatusPending}, {ProviderStatus: StatusPending}}, StatusPending},
		{"mixed trails the slowest", []OrderLine{{ProviderStatus: StatusDelivered}, {ProviderStatus: StatusShipped}}, StatusShipped},
		{"one still pending", []OrderLine{{ProviderStatus: StatusDelivered}, {ProviderStatus: StatusPending}}, StatusPending},
		{"all delivered", []OrderLine{{ProviderStatus: StatusDelivered}, {ProviderStatus: StatusDelivered}}, StatusDelivered},
		{"empty status counts as pending", []OrderLine{{ProviderStatus: ""}, {ProviderStatus: StatusDelivered}}, StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateStatus(tc.lines); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParseProductKind(t *testing.T) {
	if k, err := ParseProductKind(" Vehicle "); err != nil || k != KindVehicle {
		t.Fatalf("expected vehicle, got %v %v", k, err)
	}
	if k, err := ParseProductKind("part"); err != nil || k != KindPart {
		t.Fatalf("expected part, got %v %v", k, err)
	}
	if _, err := ParseProductKind("boat"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestComputeTotal(t *testing.T) {
	lines := []CartLine{
		{Quantity: 2, UnitPriceCents: 5000},
		{Quantity: 1, UnitPriceCents: 100000},
	}
	if got := ComputeTotal(lines); got != 110000 {
		t.Fatalf("expected 110000, got %d", got)
	}
	if got := ComputeTotal(nil); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
