package fir

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const packageMagic = "QFIR1"

// Encode serializes pkg with msgpack.
func Encode(pkg *Package) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(packageMagic)
	if err := msgpack.NewEncoder(&buf).Encode(pkg); err != nil {
		return nil, fmt.Errorf("encode package %s: %w", pkg.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode parses data produced by Encode.
func Decode(data []byte) (*Package, error) {
	if !bytes.HasPrefix(data, []byte(packageMagic)) {
		return nil, fmt.Errorf("decode package: missing %s header", packageMagic)
	}
	var pkg Package
	if err := msgpack.Unmarshal(data[len(packageMagic):], &pkg); err != nil {
		return nil, fmt.Errorf("decode package: %w", err)
	}
	return &pkg, nil
}
