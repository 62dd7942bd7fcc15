package items_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/Daunny/CRM-AUGU-sub000/internal/importer/items"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

func TestParser_ERPExport(t *testing.T) {
	csv := `견적 품목 내역 - 2026-10-15
거래처;한빛물산

구분;품목명;규격;수량;단가;할인율;금액
제품;서버 랙;42U;2;1.200.000;10%;2.160.000
서비스;설치 용역;;1;350.000;;350.000
라이선스;백업 솔루션;연간;10;45.000;5;427.500
합계;;;;;;2.937.500
`

	p := items.NewParser(0)
	got, err := p.Parse(strings.NewReader(csv), "")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, proposal.ItemTypeProduct, got[0].Type)
	assert.Equal(t, "서버 랙", got[0].Name)
	assert.Equal(t, "42U", got[0].Description)
	assert.Equal(t, int64(2), got[0].Quantity)
	assert.Equal(t, int64(1_200_000), got[0].UnitPrice)
	assert.True(t, decimal.NewFromInt(10).Equal(got[0].DiscountPercent))

	assert.Equal(t, proposal.ItemTypeService, got[1].Type)
	assert.Equal(t, int64(350_000), got[1].UnitPrice)
	assert.True(t, got[1].DiscountPercent.IsZero())

	assert.Equal(t, proposal.ItemTypeLicense, got[2].Type)
	assert.Equal(t, int64(10), got[2].Quantity)
	assert.True(t, decimal.NewFromInt(5).Equal(got[2].DiscountPercent))
}

func TestParser_CommaSeparatedWithMinorUnits(t *testing.T) {
	csv := `item,qty,unit price,discount,type
"Consulting day",3,"1,234.50",12.5,Service
Widget,1000,0.99,,
`

	p := items.NewParser(2)
	got, err := p.Parse(strings.NewReader(csv), "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Consulting day", got[0].Name)
	assert.Equal(t, int64(3), got[0].Quantity)
	assert.Equal(t, int64(123450), got[0].UnitPrice)
	assert.Equal(t, "12.5", got[0].DiscountPercent.String())
	assert.Equal(t, proposal.ItemTypeService, got[0].Type)

	assert.Equal(t, int64(1000), got[1].Quantity)
	assert.Equal(t, int64(99), got[1].UnitPrice)
	assert.Equal(t, proposal.ItemType(""), got[1].Type)
}

func TestParser_TabSeparatedExport(t *testing.T) {
	csv := "name\tquantity\tunit_price\tdiscount_percent\n" +
		"Support plan\t12\t250000\t0\n"

	p := items.NewParser(0)
	got, err := p.Parse(strings.NewReader(csv), "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, int64(12), got[0].Quantity)
	assert.Equal(t, int64(250_000), got[0].UnitPrice)
}

func TestParser_DeclaredEUCKR(t *testing.T) {
	utf8CSV := "품목명;수량;단가\n모니터;4;320.000\n"

	eucKR, err := korean.EUCKR.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	p := items.NewParser(0)
	got, err := p.Parse(bytes.NewReader(eucKR), "euc-kr")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "모니터", got[0].Name)
	assert.Equal(t, int64(320_000), got[0].UnitPrice)
}

func TestParser_DifferentColumnOrder(t *testing.T) {
	csv := `Random;MetaData
단가;수량;Ignored;품목명
15.000;3;XXX;케이블
`

	p := items.NewParser(0)
	got, err := p.Parse(strings.NewReader(csv), "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "케이블", got[0].Name)
	assert.Equal(t, int64(15_000), got[0].UnitPrice)
	assert.Equal(t, int64(3), got[0].Quantity)
}

func TestParser_Errors(t *testing.T) {
	type testCase struct {
		name    string
		csv     string
		charset string
		wantErr string
	}

	tests := []testCase{
		{name: "EmptyFile", csv: "", wantErr: "no matching item format"},
		{name: "UnknownLayout", csv: "a;b;c\n1;2;3\n", wantErr: "no matching item format"},
		{name: "MissingName", csv: "품목명;수량;단가\n;1;100\n", wantErr: "row 2: missing item name"},
		{name: "FractionalQuantity", csv: "품목명;수량;단가\n케이블;1,5;100\n", wantErr: "whole number"},
		{name: "BadPrice", csv: "품목명;수량;단가\n케이블;1;abc\n", wantErr: "unit price"},
		{name: "UnknownType", csv: "구분;품목명;수량;단가\n선물;케이블;1;100\n", wantErr: "unknown item type"},
		{name: "UnknownCharset", csv: "품목명;수량;단가\n", charset: "klingon", wantErr: "unsupported charset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := items.NewParser(0)
			_, err := p.Parse(strings.NewReader(tt.csv), tt.charset)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParser_HeaderOnly(t *testing.T) {
	p := items.NewParser(0)
	got, err := p.Parse(strings.NewReader("품목명;수량;단가"), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
