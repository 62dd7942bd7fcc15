package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	CharsetUTF8    = "UTF-8"
	CharsetUTF16LE = "UTF-16LE"
	CharsetUTF16BE = "UTF-16BE"
	// CharsetFallback is used when nothing better can be determined.
	CharsetFallback = "windows-1252"
)

// detectable lists the chardet results trusted enough to decode with.
var detectable = map[string]bool{
	"ISO-8859-1":   true,
	"windows-1252": true,
	"ISO-8859-9":   true,
	"EUC-KR":       true,
	"Shift_JIS":    true,
	"EUC-JP":       true,
	"Big5":         true,
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// NewUTF8Reader detects the encoding of the input and returns a reader that
// decodes the content to UTF-8, along with the name of the detected charset.
//
// Detection order:
//  1. Check for BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Validate if the content is valid UTF-8 and return as-is
//  3. Heuristic detection via chardet for the charsets in detectable
//  4. Fallback to Windows-1252
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	if bytes.HasPrefix(buf, bomUTF8) {
		_, _ = br.Discard(len(bomUTF8))
		return br, CharsetUTF8, nil
	}

	if bytes.HasPrefix(buf, bomUTF16LE) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16LE, nil
	}

	if bytes.HasPrefix(buf, bomUTF16BE) {
		decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		return transform.NewReader(br, decoder), CharsetUTF16BE, nil
	}

	if utf8.Valid(buf) {
		return br, CharsetUTF8, nil
	}

	detector := chardet.NewTextDetector()

	result, detectErr := detector.DetectBest(buf)
	if detectErr == nil {
		if result.Charset == CharsetUTF8 {
			return br, CharsetUTF8, nil
		}

		if enc, err := htmlindex.Get(result.Charset); err == nil && detectable[result.Charset] {
			return transform.NewReader(br, enc.NewDecoder()), result.Charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetFallback, nil
}

// NewReaderFor decodes r from an explicitly declared charset, such as the
// charset parameter of an upload's Content-Type. An empty charset falls back
// to detection.
func NewReaderFor(r io.Reader, charset string) (io.Reader, string, error) {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return NewUTF8Reader(r)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, "", fmt.Errorf("unsupported charset %q: %w", charset, err)
	}

	if enc == encoding.Nop || enc == unicode.UTF8 {
		return NewUTF8Reader(r)
	}

	name, _ := htmlindex.Name(enc)

	return transform.NewReader(r, enc.NewDecoder()), name, nil
}
