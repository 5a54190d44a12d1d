package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/vault/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"WithdrawalID", id.NewWithdrawalID, "wdr_"},
		{"ParamChangeID", id.NewParamChangeID, "chg_"},
		{"AuditEventID", id.NewAuditEventID, "evt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixWithdrawal)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixWithdrawal {
		t.Errorf("expected prefix %q, got %q", id.PrefixWithdrawal, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"WithdrawalID", id.NewWithdrawalID, id.ParseWithdrawalID},
		{"ParamChangeID", id.NewParamChangeID, id.ParseParamChangeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	wdr := id.NewWithdrawalID()
	if _, err := id.ParseParamChangeID(wdr.String()); err == nil {
		t.Error("expected error parsing a withdrawal ID as a param change ID")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"",
		"not-a-typeid",
		"wdr_!!!!",
	}

	for _, input := range tests {
		if _, err := id.Parse(input); err == nil {
			t.Errorf("expected error parsing %q", input)
		}
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := id.NewWithdrawalID().String()
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}
