// Package importer loads product catalogs from CSV sheets.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	enc "github.com/SahilSarmalkar99/MumbaiHacks/internal/encoding"
)

var ErrNoHeader = errors.New("no product header found: expected name, price and stock columns")

// Row is one data line of the sheet. Err is set when the line could not be
// turned into CreateParams.
type Row struct {
	Line   int
	Params catalog.CreateParams
	Err    error
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes r, guesses the separator and returns every data row below
// the detected header. Blank lines are skipped.
func (p *Parser) Parse(r io.Reader) (*Profile, []Row, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}

	comma := detectComma(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// csv.Reader drops blank lines, so file line numbers come from FieldPos.
	var (
		rows  [][]string
		lines []int
	)

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, nil, ErrNoHeader
	}

	return profile, parseRows(profile, cols, rows[headerIdx+1:], lines[headerIdx+1:], comma == ';'), nil
}

// detectComma votes over the first few non-empty lines. Preamble lines above
// the header usually carry no separators at all.
func detectComma(data []byte) rune {
	var semicolons, commas int

	sc := bufio.NewScanner(bytes.NewReader(data))
	for seen := 0; seen < 5 && sc.Scan(); {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		semicolons += strings.Count(line, ";")
		commas += strings.Count(line, ",")
		seen++
	}

	if semicolons > commas {
		return ';'
	}

	return ','
}

type colIndex map[string]int

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows converts data rows. lines holds the 1-based file line of each row.
func parseRows(p *Profile, cols colIndex, rows [][]string, lines []int, decimalComma bool) []Row {
	out := make([]Row, 0, len(rows))

	for i, row := range rows {
		if blank(row) {
			continue
		}

		params, err := parseRow(p, cols, row, decimalComma)
		out = append(out, Row{Line: lines[i], Params: params, Err: err})
	}

	return out
}

func parseRow(p *Profile, cols colIndex, row []string, decimalComma bool) (catalog.CreateParams, error) {
	params := catalog.CreateParams{
		Name:     cellValue(row, cols, p.NameCol),
		SKU:      cellValue(row, cols, p.SKUCol),
		Currency: cellValue(row, cols, p.CurrencyCol),
		Unit:     cellValue(row, cols, p.UnitCol),
	}

	if params.Name == "" {
		return params, errors.New("missing name")
	}

	price, err := parseAmount(cellValue(row, cols, p.PriceCol), decimalComma)
	if err != nil {
		return params, fmt.Errorf("invalid price %q", cellValue(row, cols, p.PriceCol))
	}

	params.UnitPrice = price

	stock, err := parseQuantity(cellValue(row, cols, p.StockCol), decimalComma)
	if err != nil {
		return params, fmt.Errorf("invalid stock %q", cellValue(row, cols, p.StockCol))
	}

	params.Stock = stock
	params.TaxPercent = decimal.Zero

	if raw := strings.TrimSuffix(cellValue(row, cols, p.TaxCol), "%"); raw != "" {
		tax, err := parseAmount(raw, decimalComma)
		if err != nil {
			return params, fmt.Errorf("invalid tax percent %q", raw)
		}

		params.TaxPercent = tax
	}

	return params, nil
}

func cellValue(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}
