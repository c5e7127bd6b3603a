package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(code string, day int, price int64) PriceEntry {
	return PriceEntry{
		Currency: code,
		AsOf:     time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC),
		Price:    decimal.NewFromInt(price),
	}
}

func TestBuildPriceTable_LatestEntryWins(t *testing.T) {
	feed := []PriceEntry{
		entry("USD", 1, 1),
		entry("ETH", 1, 2000),
		entry("ETH", 2, 2100),
	}

	table := BuildPriceTable(feed)

	require.Len(t, table, 2)
	assert.True(t, table.Price("USD").Equal(decimal.NewFromInt(1)))
	assert.True(t, table.Price("ETH").Equal(decimal.NewFromInt(2100)))
}

func TestBuildPriceTable_StaleEntryDiscarded(t *testing.T) {
	feed := []PriceEntry{
		entry("ETH", 5, 2100),
		entry("ETH", 2, 1900), // earlier than the stored entry
	}

	table := BuildPriceTable(feed)

	require.Len(t, table, 1)
	assert.True(t, table.Price("ETH").Equal(decimal.NewFromInt(2100)))
}

func TestBuildPriceTable_EqualTimestampLastWins(t *testing.T) {
	// ties resolve by feed order: the later position replaces the earlier one
	feed := []PriceEntry{
		entry("BTC", 3, 50000),
		entry("BTC", 3, 51000),
	}

	table := BuildPriceTable(feed)

	require.Len(t, table, 1)
	assert.True(t, table.Price("BTC").Equal(decimal.NewFromInt(51000)))
}

func TestBuildPriceTable_EmptyFeed(t *testing.T) {
	table := BuildPriceTable(nil)

	assert.Empty(t, table)
	assert.True(t, table.Price("ETH").IsZero())
}

func TestBuildPriceTable_MaxAsOfPerCode(t *testing.T) {
	feed := []PriceEntry{
		entry("ATOM", 4, 9),
		entry("ATOM", 9, 11),
		entry("ATOM", 7, 10),
		entry("OSMO", 1, 1),
	}

	table := BuildPriceTable(feed)

	require.Len(t, table, 2)
	assert.Equal(t, 9, table["ATOM"].AsOf.Day())
	assert.True(t, table.Price("ATOM").Equal(decimal.NewFromInt(11)))
}

func TestPriceTable_Currencies(t *testing.T) {
	table := BuildPriceTable([]PriceEntry{
		entry("USD", 1, 1),
		entry("BTC", 1, 50000),
		entry("ETH", 1, 2100),
	})

	assert.Equal(t, []string{"BTC", "ETH", "USD"}, table.Currencies())
}
