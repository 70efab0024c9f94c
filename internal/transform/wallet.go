package transform

import (
	"strings"

	"github.com/Adnankhaledd/lingo-staking-dashboard/internal/dune"
)

// NormalizeWallet strips the zero padding Dune adds after the 0x prefix
// of wallet addresses.
func NormalizeWallet(wallet string) string {
	if !strings.HasPrefix(wallet, "0x") {
		return wallet
	}
	return "0x" + strings.TrimLeft(wallet[2:], "0")
}

// TruncateWallet shortens a normalized address to "0x1234...abcd" for
// display. Addresses of 13 characters or fewer are left alone.
func TruncateWallet(wallet string) string {
	w := NormalizeWallet(wallet)
	if len(w) <= 13 {
		return w
	}
	return w[:6] + "..." + w[len(w)-4:]
}

// StakerEntry is one shaped leaderboard row. PctOfTotal passes through
// from the source unchanged; clamping to a 100% bar is a rendering
// concern.
type StakerEntry struct {
	Rank        int     `json:"rank"`
	Wallet      string  `json:"wallet"`
	FullWallet  string  `json:"fullWallet"`
	LingoStaked float64 `json:"lingoStaked"`
	USDValue    float64 `json:"usdValue"`
	PctOfTotal  float64 `json:"pctOfTotal"`
}

// TopStakers shapes leaderboard rows for display.
func TopStakers(rows []dune.TopStakerRow) []StakerEntry {
	if len(rows) == 0 {
		return []StakerEntry{}
	}
	out := make([]StakerEntry, len(rows))
	for i, r := range rows {
		out[i] = StakerEntry{
			Rank:        r.Rank,
			Wallet:      TruncateWallet(r.Wallet),
			FullWallet:  NormalizeWallet(r.Wallet),
			LingoStaked: r.LingoStaked,
			USDValue:    r.USDValue,
			PctOfTotal:  r.PctOfTotal,
		}
	}
	return out
}
