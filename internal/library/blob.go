package library

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

// hashContent returns the blake3-256 hex digest of raw content. Blobs are
// addressed by this digest, so identical content stores once.
func hashContent(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// compress xz-compresses raw content for storage.
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.NewIO("compress", "blob", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.NewIO("compress", "blob", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewIO("compress", "blob", err)
	}
	return buf.Bytes(), nil
}

// decompress reverses compress.
func decompress(data []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewIO("decompress", "blob", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("decompress", "blob", err)
	}
	return out, nil
}
