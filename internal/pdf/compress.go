package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

// compress deflates data and returns the matching /Filter entry.
func compress(data []byte, level int) ([]byte, string, error) {
	if level == zlib.NoCompression {
		return data, "", nil
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, "", err
	}
	if err := zw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "/Filter /FlateDecode ", nil
}
