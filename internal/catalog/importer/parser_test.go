package importer_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
)

func TestParser_Billbook(t *testing.T) {
	sheet := `name,sku,price,currency,stock,tax_percent,unit
Masala Chai 250g,CHAI-250,"1,20,000.50",INR,40,5,pack
Basmati Rice,RICE-5KG,₹ 649,,12,,bag

Broken Row,,abc,,1,,
`

	profile, rows, err := importer.NewParser().Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, "billbook", profile.Name)
	require.Len(t, rows, 3)

	first := rows[0]
	require.NoError(t, first.Err)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Masala Chai 250g", first.Params.Name)
	assert.Equal(t, "CHAI-250", first.Params.SKU)
	assert.True(t, decimal.RequireFromString("120000.50").Equal(first.Params.UnitPrice))
	assert.Equal(t, "INR", first.Params.Currency)
	assert.Equal(t, int64(40), first.Params.Stock)
	assert.True(t, decimal.NewFromInt(5).Equal(first.Params.TaxPercent))
	assert.Equal(t, "pack", first.Params.Unit)

	second := rows[1]
	require.NoError(t, second.Err)
	assert.True(t, decimal.NewFromInt(649).Equal(second.Params.UnitPrice))
	assert.True(t, second.Params.TaxPercent.IsZero())

	broken := rows[2]
	assert.Equal(t, 5, broken.Line)
	assert.EqualError(t, broken.Err, `invalid price "abc"`)
}

func TestParser_SemicolonDecimalComma(t *testing.T) {
	sheet := "Name;Price;Stock;Tax_Percent\nPão de forma;1.234,56;7;6%\n"

	_, rows, err := importer.NewParser().Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)

	assert.Equal(t, "Pão de forma", rows[0].Params.Name)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(rows[0].Params.UnitPrice))
	assert.True(t, decimal.NewFromInt(6).Equal(rows[0].Params.TaxPercent))
}

func TestParser_StockSummaryAfterPreamble(t *testing.T) {
	sheet := `Stock Summary
Sharma General Store
Item Name,Item Code,Rate,Closing Qty,UoM,GST %
Toor Dal 1kg,TD1,145.00,30.000,kg,5
`

	profile, rows, err := importer.NewParser().Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, "stock-summary", profile.Name)
	require.Len(t, rows, 1)
	require.NoError(t, rows[0].Err)

	assert.Equal(t, 4, rows[0].Line)
	assert.Equal(t, "TD1", rows[0].Params.SKU)
	assert.Equal(t, int64(30), rows[0].Params.Stock)
	assert.Equal(t, "kg", rows[0].Params.Unit)
}

func TestParser_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("name;price;stock\nCrème brûlée;3,50;4\n")
	require.NoError(t, err)

	_, rows, err := importer.NewParser().Parse(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Crème brûlée", rows[0].Params.Name)
}

func TestParser_RowErrors(t *testing.T) {
	sheet := "name,price,stock\n,10,1\nSoap,10,1.5\nSoap,10,n/a\n"

	_, rows, err := importer.NewParser().Parse(strings.NewReader(sheet))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.EqualError(t, rows[0].Err, "missing name")
	assert.EqualError(t, rows[1].Err, `invalid stock "1.5"`)
	assert.EqualError(t, rows[2].Err, `invalid stock "n/a"`)
}

func TestParser_NoHeader(t *testing.T) {
	_, _, err := importer.NewParser().Parse(strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, importer.ErrNoHeader)
}
