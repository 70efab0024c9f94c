package transform

import (
	"testing"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

func TestNormalizeWallet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x000000000000000000000000000000000000dEaD", "0xdEaD"},
		{"0x0001234", "0x1234"},
		{"0xabc", "0xabc"},
		{"no-prefix", "no-prefix"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeWallet(tt.in); got != tt.want {
			t.Errorf("NormalizeWallet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateWallet(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Normalized first, then 6+4 when longer than 13 chars.
		{"0x00001234567890abcdef1234", "0x1234...1234"},
		{"0x000000000000000000000000000000000000dEaD", "0xdEaD"},
		{"0xabcdef01234", "0xabcdef01234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TruncateWallet(tt.in); got != tt.want {
			t.Errorf("TruncateWallet(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTopStakers(t *testing.T) {
	rows := []dune.TopStakerRow{
		{
			Rank:        1,
			Wallet:      "0x00001234567890abcdef1234",
			LingoStaked: 1_000_000,
			USDValue:    85_000,
			PctOfTotal:  12.4,
		},
	}
	got := TopStakers(rows)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	e := got[0]
	if e.Wallet != "0x1234...1234" {
		t.Errorf("Wallet = %q, want truncated", e.Wallet)
	}
	if e.FullWallet != "0x1234567890abcdef1234" {
		t.Errorf("FullWallet = %q, want normalized", e.FullWallet)
	}
	if e.PctOfTotal != 12.4 {
		t.Errorf("PctOfTotal = %v, want passthrough 12.4", e.PctOfTotal)
	}

	if got := TopStakers(nil); len(got) != 0 {
		t.Errorf("TopStakers(nil) = %v, want empty", got)
	}
}
