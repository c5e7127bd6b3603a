// Package domain defines core data structures used throughout the swap simulator.
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceEntry is a single record from the price feed.
type PriceEntry struct {
	// Currency code, e.g. "ETH".
	Currency string
	// AsOf timestamp the price was quoted at.
	AsOf time.Time
	// Price in the feed's common denomination.
	Price decimal.Decimal
}

// PriceTable maps a currency code to its canonical price entry.
// At most one entry per code.
type PriceTable map[string]PriceEntry

// BuildPriceTable reduces a raw feed into a canonical table in one
// left-to-right pass. An incoming entry replaces the stored one only when
// its AsOf is strictly later; on equal timestamps the later feed position
// wins because strict inequality compares against the already stored entry.
func BuildPriceTable(feed []PriceEntry) PriceTable {
	table := make(PriceTable, len(feed))
	for _, entry := range feed {
		stored, ok := table[entry.Currency]
		if !ok || !entry.AsOf.Before(stored.AsOf) {
			table[entry.Currency] = entry
		}
	}
	return table
}

// Price returns the canonical price for code, zero for unknown codes.
func (t PriceTable) Price(code string) decimal.Decimal {
	entry, ok := t[code]
	if !ok {
		return decimal.Zero
	}
	return entry.Price
}

// Currencies returns the codes present in the table in lexicographic order.
func (t PriceTable) Currencies() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
