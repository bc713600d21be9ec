package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kosarica/price-aggregator/internal/types"
)

func TestWriteXLSX(t *testing.T) {
	c := Comparison{
		Query:    "milk",
		Category: "groceries",
		Location: "Mumbai (400001)",
		Source:   types.SourceLive,
		Records: []types.PriceRecord{
			{Platform: "Zepto", ProductName: "Amul Milk 1L", Price: 64, PriceStatus: types.PriceParsed, DeliveryFee: 30, InStock: true, DataSource: types.SourceLive},
			{Platform: "Blinkit", ProductName: "Amul Milk 1L", Price: 62, PriceStatus: types.PriceParsed, DeliveryFee: 25, InStock: true, IsCheapest: true, DataSource: types.SourceLive},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, c))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPrices)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Platform", rows[0][0])
	assert.Equal(t, "Blinkit", rows[2][0])
	assert.Equal(t, "87", rows[2][5])
	assert.Equal(t, "yes", rows[2][10])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cheapest platform", "Blinkit"}, summary[5])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, Comparison{Query: "milk"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Len(t, summary, 5)
}
