package stripe

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		want   int64
	}{
		{name: "whole dollars", amount: "25.00", want: 2500},
		{name: "exact cents", amount: "19.99", want: 1999},
		{name: "half cent rounds up", amount: "10.005", want: 1001},
		{name: "below half cent rounds down", amount: "10.004", want: 1000},
		{name: "zero", amount: "0", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			if err != nil {
				t.Fatalf("parse amount: %v", err)
			}
			if got := MinorUnits(amount); got != tc.want {
				t.Fatalf("MinorUnits(%s) = %d, want %d", tc.amount, got, tc.want)
			}
		})
	}
}

func TestNormalizeEnv(t *testing.T) {
	if env, err := normalizeEnv(""); err != nil || env != testEnv {
		t.Fatalf("normalizeEnv(\"\") = %q, %v; want %q, nil", env, err, testEnv)
	}
	if env, err := normalizeEnv(" Live "); err != nil || env != liveEnv {
		t.Fatalf("normalizeEnv(\" Live \") = %q, %v; want %q, nil", env, err, liveEnv)
	}
	if _, err := normalizeEnv("staging"); err == nil {
		t.Fatal("expected error for unknown environment")
	}
}

func TestValidateAPIKey(t *testing.T) {
	if err := validateAPIKey(testEnv, "sk_test_abc"); err != nil {
		t.Fatalf("test key in test env: %v", err)
	}
	if err := validateAPIKey(testEnv, "sk_live_abc"); err == nil {
		t.Fatal("live key in test env should fail")
	}
	if err := validateAPIKey(liveEnv, "rk_live_abc"); err != nil {
		t.Fatalf("live key in live env: %v", err)
	}
	if err := validateAPIKey(liveEnv, "sk_test_abc"); err == nil {
		t.Fatal("test key in live env should fail")
	}
}
