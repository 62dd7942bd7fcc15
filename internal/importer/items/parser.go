package items

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	enc "github.com/Daunny/CRM-AUGU-sub000/internal/encoding"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

var delimiters = []rune{';', ',', '\t'}

var footers = map[string]bool{
	"합계":       true,
	"소계":       true,
	"total":    true,
	"subtotal": true,
}

var itemTypes = map[string]proposal.ItemType{
	"product": proposal.ItemTypeProduct,
	"제품":      proposal.ItemTypeProduct,
	"상품":      proposal.ItemTypeProduct,
	"service": proposal.ItemTypeService,
	"서비스":     proposal.ItemTypeService,
	"용역":      proposal.ItemTypeService,
	"license": proposal.ItemTypeLicense,
	"licence": proposal.ItemTypeLicense,
	"라이선스":    proposal.ItemTypeLicense,
	"라이센스":    proposal.ItemTypeLicense,
	"other":   proposal.ItemTypeOther,
	"기타":      proposal.ItemTypeOther,
}

// Parser reads item sheets exported from spreadsheets or ERP systems and
// produces proposal item params. The delimiter and column layout are
// detected by matching headers against known profiles.
type Parser struct {
	decimals int32
}

// NewParser returns a parser for prices in a currency with the given number
// of minor-unit decimals.
func NewParser(decimals int32) *Parser {
	return &Parser{decimals: decimals}
}

func (p *Parser) Parse(r io.Reader, charset string) ([]proposal.ItemParams, error) {
	utf8r, detected, err := enc.NewReaderFor(r, charset)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, comma := range delimiters {
		rows, err := readRows(data, comma)
		if err != nil {
			continue
		}

		profile, colMap, headerIdx := detectProfile(rows)
		if profile == nil {
			continue
		}

		slog.Debug("item sheet detected", "profile", profile.Name, "charset", detected, "delimiter", string(comma))

		return p.parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
	}

	return nil, fmt.Errorf("no matching item format found: expected name, quantity and unit price columns")
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) of(name string) int {
	if idx, ok := c[name]; ok {
		return idx
	}

	return -1
}

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
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

// parseRows extracts items from data rows. headerRowNum is the 0-based index
// of the header in the original file, for error messages.
func (p *Parser) parseRows(profile *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]proposal.ItemParams, error) {
	var items []proposal.ItemParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 2

		if blank(row) {
			continue
		}

		if footers[strings.ToLower(firstCell(row))] {
			continue
		}

		name := cellValue(row, cols.of(profile.NameCol))

		if name == "" {
			return nil, fmt.Errorf("row %d: missing item name", rowNum)
		}

		item, err := p.parseItem(profile, cols, row, name)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		items = append(items, item)
	}

	return items, nil
}

func (p *Parser) parseItem(profile *Profile, cols colIndex, row []string, name string) (proposal.ItemParams, error) {
	item := proposal.ItemParams{
		Name:        name,
		Description: cellValue(row, cols.of(profile.DescCol)),
	}

	qty, err := parseQuantity(cellValue(row, cols.of(profile.QuantityCol)))
	if err != nil {
		return item, fmt.Errorf("quantity: %w", err)
	}

	item.Quantity = qty

	price, err := parseAmount(cellValue(row, cols.of(profile.PriceCol)), p.decimals)
	if err != nil {
		return item, fmt.Errorf("unit price: %w", err)
	}

	item.UnitPrice = price

	if s := cellValue(row, cols.of(profile.DiscountCol)); s != "" {
		item.DiscountPercent, err = parsePercent(s)
		if err != nil {
			return item, fmt.Errorf("discount: %w", err)
		}
	}

	if s := cellValue(row, cols.of(profile.TypeCol)); s != "" {
		t, ok := itemTypes[strings.ToLower(s)]
		if !ok {
			return item, fmt.Errorf("unknown item type %q", s)
		}

		item.Type = t
	}

	return item, nil
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	return firstCell(row) == ""
}

// firstCell returns the first non-empty trimmed cell; totals rows put their
// label there.
func firstCell(row []string) string {
	for _, cell := range row {
		if c := strings.TrimSpace(cell); c != "" {
			return c
		}
	}

	return ""
}
