package rir

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// programMagic prefixes encoded programs so stale or foreign files are
// rejected before decoding.
const programMagic = "QRIR1"

// Encode serializes p with msgpack.
func Encode(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(programMagic)
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode program: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Program, error) {
	if !bytes.HasPrefix(data, []byte(programMagic)) {
		return nil, fmt.Errorf("decode program: missing %s header", programMagic)
	}
	var p Program
	if err := msgpack.Unmarshal(data[len(programMagic):], &p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}
