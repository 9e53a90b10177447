package document

import (
	"io"
	"strings"

	"github.com/DesigningLevers0/tab-to-notes/core/errors"
)

// SplitLines breaks raw document bytes into lines without terminators.
// Windows line endings are normalized first. A trailing newline yields a
// final empty element, which JoinLines turns back into that newline.
func SplitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// Convert processes raw document bytes and returns the converted bytes.
func (p *Processor) Convert(data []byte) ([]byte, error) {
	res, err := p.Process(SplitLines(data))
	if err != nil {
		return nil, err
	}
	return JoinLines(res.Lines), nil
}

// ConvertReader processes everything readable from r.
func (p *Processor) ConvertReader(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIO("read", "input", err)
	}
	return p.Convert(data)
}
