package domain

import (
	"errors"
	"slices"
	"testing"

	"github.com/shopspring/decimal"
)

func TestKind_Sign(t *testing.T) {
	t.Parallel()

	want := map[Kind]int{
		KindExpense:       -1,
		KindIncome:        1,
		KindExchangeOut:   -1,
		KindExchangeIn:    1,
		KindReconcileUp:   1,
		KindReconcileDown: -1,
	}

	for _, k := range AllKinds() {
		if got := k.Sign(); got != want[k] {
			t.Fatalf("%s: expected sign %d, got %d", k, want[k], got)
		}
	}

	if Kind("transfer").Valid() {
		t.Fatal("expected unknown kind to be invalid")
	}
}

func TestKind_Apply(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("12.5")

	if got := KindIncome.Apply(amount); !got.Equal(amount) {
		t.Fatalf("expected %s, got %s", amount, got)
	}
	if got := KindExpense.Apply(amount); !got.Equal(amount.Neg()) {
		t.Fatalf("expected %s, got %s", amount.Neg(), got)
	}
	if got := Kind("bogus").Apply(amount); !got.IsZero() {
		t.Fatalf("expected zero for unknown kind, got %s", got)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind(" Reconcile_Down ")
	if err != nil {
		t.Fatalf("ParseKind: %v", err)
	}
	if k != KindReconcileDown || !k.IsReconcile() {
		t.Fatalf("unexpected kind %s", k)
	}

	if _, err := ParseKind("reconcile"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKindFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []Kind
		wantErr error
	}{
		{in: "reconcile", want: []Kind{KindReconcileUp, KindReconcileDown}},
		{in: " Exchange ", want: []Kind{KindExchangeOut, KindExchangeIn}},
		{in: "reconcile_up", want: []Kind{KindReconcileUp}},
		{in: "expense", want: []Kind{KindExpense}},
		{in: "transfer", wantErr: ErrUnknownKind},
	}

	for _, tt := range tests {
		got, err := ParseKindFilter(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseKindFilter(%q): expected %v, got %v", tt.in, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseKindFilter(%q): %v", tt.in, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Fatalf("ParseKindFilter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
