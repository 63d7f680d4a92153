package core

// input.go reads the raw input stream one line at a time.
//
// Lines are not length-limited, CRLF and LF endings are both accepted, a
// UTF-8 BOM at the start of the stream (common in files saved by Windows
// programs) is dropped, and invalid UTF-8 is replaced with U+FFFD so the
// rejection log always stays valid UTF-8.

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const fieldDelimiter = ","

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SplitFields splits one raw line on the field delimiter.
// There is no quoting support: fields are returned verbatim, including
// surrounding whitespace and trailing empty fields.
func SplitFields(line string) []string {
	return strings.Split(line, fieldDelimiter)
}

// lineReader yields lines without their terminators.
type lineReader struct {
	r       *bufio.Reader
	started bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// next returns the next line. ok is false at a clean end of input.
// Any other error means the source could not be read.
func (lr *lineReader) next() (line string, ok bool, err error) {
	if !lr.started {
		lr.started = true
		if err := lr.skipBOM(); err != nil {
			return "", false, err
		}
	}

	s, err := lr.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if errors.Is(err, io.EOF) && s == "" {
		return "", false, nil
	}

	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return strings.ToValidUTF8(s, "\uFFFD"), true, nil
}

func (lr *lineReader) skipBOM() error {
	head, err := lr.r.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if len(head) == len(utf8BOM) && string(head) == string(utf8BOM) {
		_, err := lr.r.Discard(len(utf8BOM))
		return err
	}
	return nil
}
