package importer

import (
	"fmt"
	"io"

	"github.com/Daunny/CRM-AUGU-sub000/internal/importer/items"
	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

type Service struct {
	csvImporter Importer
}

// NewService builds importers for prices in a currency with the given number
// of minor-unit decimals.
func NewService(currencyDecimals int32) *Service {
	return &Service{
		csvImporter: items.NewParser(currencyDecimals),
	}
}

func (s *Service) Import(format Format, r io.Reader, charset string) ([]proposal.ItemParams, error) {
	var importer Importer

	switch format {
	case FormatCSV, "":
		importer = s.csvImporter
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return importer.Parse(r, charset)
}
