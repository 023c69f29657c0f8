package driver

import (
	"encoding/binary"
	"encoding/hex"

	"fortio.org/safecast"
	"golang.org/x/crypto/blake2b"

	"quill/internal/fir"
	"quill/internal/target"
)

// Key identifies one compilation: the encoded package together with every
// option that changes the emitted program.
type Key [blake2b.Size256]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// IsZero reports whether k was never computed.
func (k Key) IsZero() bool { return k == Key{} }

// KeyInput lists what a cache key covers.
type KeyInput struct {
	Package           *fir.Package
	Capabilities      target.Capabilities
	MaxCallDepth      int
	MaxLoopIterations int
}

// ComputeKey hashes H(schema || package || capabilities || limits).
func ComputeKey(in KeyInput) (Key, error) {
	encoded, err := fir.Encode(in.Package)
	if err != nil {
		return Key{}, err
	}
	return combineDigest(encoded, in.Capabilities, in.MaxCallDepth, in.MaxLoopIterations)
}

func combineDigest(encoded []byte, caps target.Capabilities, limits ...int) (Key, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Key{}, err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint16(buf[:2], diskCacheSchemaVersion)
	_, _ = h.Write(buf[:2])
	binary.LittleEndian.PutUint64(buf[:], uint64(len(encoded)))
	_, _ = h.Write(buf[:])
	_, _ = h.Write(encoded)
	binary.LittleEndian.PutUint16(buf[:2], uint16(caps))
	_, _ = h.Write(buf[:2])
	for _, l := range limits {
		v, err := safecast.Conv[uint64](l)
		if err != nil {
			return Key{}, err
		}
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	var out Key
	copy(out[:], h.Sum(nil))
	return out, nil
}
