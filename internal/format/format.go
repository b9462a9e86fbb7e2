package format

import (
	"encoding/json"
	"io"
)

// Formatter abstracts CLI output encoding.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes one JSON document per payload. A non-empty
// Indent pretty-prints.
type JSONFormatter struct {
	Indent string
}

// Write encodes the payload to the writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(payload)
}
