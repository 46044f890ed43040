package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripUTF8BOM returns an io.Reader that will consume a leading UTF-8 BOM
// if present, otherwise it returns a buffered reader over r.
func StripUTF8BOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	// Peek does not advance the reader
	b, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	return br
}

// DecodeJSON decodes a single JSON document from r into v, tolerating a leading BOM.
// An empty body leaves v untouched and is not an error.
func DecodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(StripUTF8BOM(r)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}

		return fmt.Errorf("failed to decode JSON body: %w", err)
	}

	return nil
}
