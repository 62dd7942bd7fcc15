package proposal

import (
	"fmt"
	"time"
)

const codePrefix = "PROP"

// CodePeriod is the sequence scope of a proposal code, e.g. "202610".
func CodePeriod(t time.Time) string {
	return t.Format("200601")
}

// FormatCode renders PROP-YYYYMM-NNNN. Sequences past 9999 keep growing in width.
func FormatCode(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", codePrefix, CodePeriod(t), seq)
}
