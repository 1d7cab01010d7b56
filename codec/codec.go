// Package codec implements the SCALE encoding of the enclave protocol types.
//
// The set of types is closed: every value that crosses the enclave boundary
// has a Go type in this package with its own encoder and decoder, so callers
// never look types up by name.
package codec

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// maxVecLen bounds decoded vector lengths so a corrupt length prefix cannot
// force a huge allocation.
const maxVecLen = 1 << 24

// Encode SCALE-encodes v.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// MustEncode is Encode for values whose encoding cannot fail.
func MustEncode(v interface{}) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode SCALE-decodes the prefix of b into target. Trailing bytes are ignored.
func Decode(b []byte, target interface{}) error {
	if err := scale.NewDecoder(bytes.NewReader(b)).Decode(target); err != nil {
		return fmt.Errorf("codec: decode %T: %w", target, err)
	}
	return nil
}

// DecodeExact is Decode, but fails unless all of b is consumed.
func DecodeExact(b []byte, target interface{}) error {
	r := bytes.NewReader(b)
	if err := scale.NewDecoder(r).Decode(target); err != nil {
		return fmt.Errorf("codec: decode %T: %w", target, err)
	}
	if r.Len() != 0 {
		return fmt.Errorf("codec: decode %T: %d trailing bytes", target, r.Len())
	}
	return nil
}

// EncodeToHex SCALE-encodes v and returns it 0x-prefixed.
func EncodeToHex(v interface{}) (string, error) {
	b, err := Encode(v)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

// DecodeHex decodes a 0x-prefixed hex string and SCALE-decodes it into target.
func DecodeHex(s string, target interface{}) error {
	b, err := hexutil.Decode(s)
	if err != nil {
		return fmt.Errorf("codec: hex %q: %w", s, err)
	}
	return Decode(b, target)
}

func writeCompact(enc scale.Encoder, n uint64) error {
	return enc.EncodeUintCompact(*new(big.Int).SetUint64(n))
}

func readCompact(dec scale.Decoder) (uint64, error) {
	n, err := dec.DecodeUintCompact()
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() || n.Uint64() > maxVecLen {
		return 0, fmt.Errorf("codec: length %s out of range", n)
	}
	return n.Uint64(), nil
}

func writeBytes(enc scale.Encoder, b []byte) error {
	if err := writeCompact(enc, uint64(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return enc.Write(b)
}

func readBytes(dec scale.Decoder) ([]byte, error) {
	n, err := readCompact(dec)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	if err := dec.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeBool(enc scale.Encoder, v bool) error {
	if v {
		return enc.PushByte(1)
	}
	return enc.PushByte(0)
}

func readBool(dec scale.Decoder) (bool, error) {
	b, err := dec.ReadOneByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("codec: invalid bool byte %d", b)
	}
}

func writeFixed(enc scale.Encoder, b []byte, size int) error {
	if len(b) != size {
		return fmt.Errorf("codec: expected %d bytes, got %d", size, len(b))
	}
	return enc.Write(b)
}

func readFixed(dec scale.Decoder, size int) ([]byte, error) {
	b := make([]byte, size)
	if err := dec.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// H256 is a 32 byte hash.
type H256 [32]byte

// Encode implements scale.Encodeable.
func (h H256) Encode(enc scale.Encoder) error {
	return enc.Write(h[:])
}

// Decode implements scale.Decodeable.
func (h *H256) Decode(dec scale.Decoder) error {
	return dec.Read(h[:])
}

// Hex returns the 0x-prefixed hex form of the hash.
func (h H256) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements fmt.Stringer.
func (h H256) String() string {
	return h.Hex()
}

// H256FromHex parses a 0x-prefixed 32 byte hex string.
func H256FromHex(s string) (H256, error) {
	var h H256
	b, err := hexutil.Decode(s)
	if err != nil {
		return h, fmt.Errorf("codec: hash %q: %w", s, err)
	}
	if len(b) != len(h) {
		return h, fmt.Errorf("codec: hash %q: expected 32 bytes, got %d", s, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// OptionH256 is an Option<[u8; 32]>.
type OptionH256 struct {
	Some  bool
	Value H256
}

// SomeH256 returns a populated OptionH256.
func SomeH256(v H256) OptionH256 {
	return OptionH256{Some: true, Value: v}
}

// Encode implements scale.Encodeable.
func (o OptionH256) Encode(enc scale.Encoder) error {
	if !o.Some {
		return enc.PushByte(0)
	}
	if err := enc.PushByte(1); err != nil {
		return err
	}
	return o.Value.Encode(enc)
}

// Decode implements scale.Decodeable.
func (o *OptionH256) Decode(dec scale.Decoder) error {
	some, err := readBool(dec)
	if err != nil {
		return err
	}
	o.Some = some
	if !some {
		o.Value = H256{}
		return nil
	}
	return o.Value.Decode(dec)
}

// OptionBytes is an Option<Vec<u8>>.
type OptionBytes struct {
	Some  bool
	Value []byte
}

// Encode implements scale.Encodeable.
func (o OptionBytes) Encode(enc scale.Encoder) error {
	if !o.Some {
		return enc.PushByte(0)
	}
	if err := enc.PushByte(1); err != nil {
		return err
	}
	return writeBytes(enc, o.Value)
}

// Decode implements scale.Decodeable.
func (o *OptionBytes) Decode(dec scale.Decoder) error {
	some, err := readBool(dec)
	if err != nil {
		return err
	}
	o.Some = some
	o.Value = nil
	if !some {
		return nil
	}
	o.Value, err = readBytes(dec)
	return err
}

// Bytes is a length-prefixed Vec<u8>.
type Bytes []byte

// Encode implements scale.Encodeable.
func (b Bytes) Encode(enc scale.Encoder) error {
	return writeBytes(enc, b)
}

// Decode implements scale.Decodeable.
func (b *Bytes) Decode(dec scale.Decoder) error {
	v, err := readBytes(dec)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// String decodes the bytes as UTF-8.
func (b Bytes) String() string {
	return string(b)
}

// Raw is a value that has already been encoded by an external encoder and is
// written verbatim. It cannot be decoded since its length is unknown.
type Raw []byte

// Encode implements scale.Encodeable.
func (r Raw) Encode(enc scale.Encoder) error {
	if len(r) == 0 {
		return fmt.Errorf("codec: empty pre-encoded value")
	}
	return enc.Write(r)
}

// U32 is a little-endian u32 with an explicit codec.
type U32 uint32

// Encode implements scale.Encodeable.
func (u U32) Encode(enc scale.Encoder) error {
	var b [4]byte
	b[0], b[1], b[2], b[3] = byte(u), byte(u>>8), byte(u>>16), byte(u>>24)
	return enc.Write(b[:])
}

// Decode implements scale.Decodeable.
func (u *U32) Decode(dec scale.Decoder) error {
	var b [4]byte
	if err := dec.Read(b[:]); err != nil {
		return err
	}
	*u = U32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
	return nil
}
