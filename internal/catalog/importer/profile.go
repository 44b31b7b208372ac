package importer

// Profile describes the column layout of a product sheet. Header cells are
// compared case-insensitively after trimming.
type Profile struct {
	Name        string
	NameCol     string
	PriceCol    string
	StockCol    string
	SKUCol      string // optional
	CurrencyCol string // optional
	TaxCol      string // optional
	UnitCol     string // optional
}

func (p Profile) requiredCols() []string {
	return []string{p.NameCol, p.PriceCol, p.StockCol}
}

// profiles is tried in order during detection.
var profiles = []Profile{
	{
		Name:        "billbook",
		NameCol:     "name",
		PriceCol:    "price",
		StockCol:    "stock",
		SKUCol:      "sku",
		CurrencyCol: "currency",
		TaxCol:      "tax_percent",
		UnitCol:     "unit",
	},
	{
		// Stock summary export from common Indian accounting packages.
		Name:     "stock-summary",
		NameCol:  "item name",
		PriceCol: "rate",
		StockCol: "closing qty",
		SKUCol:   "item code",
		TaxCol:   "gst %",
		UnitCol:  "uom",
	},
}
