package importer

import (
	"io"

	"github.com/Daunny/CRM-AUGU-sub000/internal/proposal"
)

type Format string

const (
	FormatCSV Format = "csv"
)

// Importer turns an uploaded item sheet into item params. An empty charset
// means the encoding is detected from the content.
type Importer interface {
	Parse(r io.Reader, charset string) ([]proposal.ItemParams, error)
}
