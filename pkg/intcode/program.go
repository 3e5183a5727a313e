package intcode

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Program is the initial memory image of an Intcode program.
type Program []int64

// Parse decodes the textual program encoding: a single line of
// comma-separated base-10 integers, optionally negative. Surrounding
// whitespace, including a trailing newline, is ignored.
func Parse(text string) (Program, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("intcode: empty program")
	}

	fields := strings.Split(text, ",")
	prog := make(Program, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("intcode: invalid value %q at position %d: %w", field, i, err)
		}
		prog[i] = v
	}
	return prog, nil
}

// ReadProgram reads and parses a program from r.
func ReadProgram(r io.Reader) (Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("intcode: failed to read program: %w", err)
	}
	return Parse(string(data))
}

// String encodes the program in its textual form.
func (p Program) String() string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}

// Clone returns an independent copy of the program.
func (p Program) Clone() Program {
	return append(Program(nil), p...)
}

// Hash returns the hex SHA-256 of the program's textual encoding.
func (p Program) Hash() string {
	sum := sha256.Sum256([]byte(p.String()))
	return hex.EncodeToString(sum[:])
}
