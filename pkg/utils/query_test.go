package utils

import "testing"

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"", ""},
		{"   ", ""},
		{"\t\n", ""},
		{" TCS.NS ", "TCS.NS"},
		{"Reliance   Industries", "Reliance Industries"},
		{"  hdfc bank\n", "hdfc bank"},
	}

	for _, tt := range tests {
		if got := CleanQuery(tt.input); got != tt.want {
			t.Errorf("CleanQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSplitSymbol(t *testing.T) {
	tests := []struct {
		input, symbol, exchange string
	}{
		{"RELIANCE.NS", "RELIANCE", "NSE"},
		{"tcs.ns", "TCS", "NSE"},
		{"500325.BO", "500325", "BSE"},
		{"INFY", "INFY", "NSE"},
	}

	for _, tt := range tests {
		sym, ex := SplitSymbol(tt.input)
		if sym != tt.symbol || ex != tt.exchange {
			t.Errorf("SplitSymbol(%q) = (%q, %q), want (%q, %q)", tt.input, sym, ex, tt.symbol, tt.exchange)
		}
	}
}
