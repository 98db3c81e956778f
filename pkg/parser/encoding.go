package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// decodeReader wraps r so that its content is decoded from the named
// encoding into UTF-8. Empty and UTF-8 names pass through untouched.
// Returns the canonical encoding name recorded in the file metadata.
func decodeReader(r io.Reader, name string) (io.Reader, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "", "utf-8", "utf8":
		return r, DefaultEncoding, nil
	}

	enc, err := ianaindex.IANA.Encoding(normalized)
	if err != nil || enc == nil {
		return nil, "", fmt.Errorf("unsupported encoding %q", name)
	}

	return transform.NewReader(r, enc.NewDecoder()), normalized, nil
}
