package core

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "integer", input: "42", wantCents: 4200},
		{name: "two decimals", input: "42.50", wantCents: 4250},
		{name: "negative", input: "-12.34", wantCents: -1234},
		{name: "comma decimal separator", input: "12,34", wantCents: 1234},
		{name: "surrounding spaces", input: "  9.99  ", wantCents: 999},
		{name: "zero", input: "0", wantCents: 0},
		{name: "sub-cent rounds half up", input: "1.005", wantCents: 101},
		{name: "negative sub-cent rounds half up", input: "-1.005", wantCents: -101},
		{name: "leading plus", input: "+3.10", wantCents: 310},
		{name: "empty", input: "", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "double separator", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMoney(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMoney(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("ParseMoney(%q) = %d cents, want %d", tt.input, got.Cents, tt.wantCents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{4250, "42.50"},
		{-999, "-9.99"},
		{100000, "1000.00"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyDisplay(t *testing.T) {
	if got := (Money{Cents: -1234}).Display(); got != "-$12.34" {
		t.Errorf("Display() = %q, want -$12.34", got)
	}
	if got := (Money{Cents: 500}).Display(); got != "$5.00" {
		t.Errorf("Display() = %q, want $5.00", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 500}
	b := Money{Cents: -200}

	if got := a.Add(b); got.Cents != 300 {
		t.Errorf("Add = %d, want 300", got.Cents)
	}
	if got := a.Neg(); got.Cents != -500 {
		t.Errorf("Neg = %d, want -500", got.Cents)
	}
	if !b.IsNegative() || b.IsPositive() || b.IsZero() {
		t.Errorf("sign predicates wrong for %d", b.Cents)
	}
	if !(Money{}).IsZero() {
		t.Error("zero Money should be IsZero")
	}
}
