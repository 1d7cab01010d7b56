package chain

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Twox128 is the 128 bit xxHash used for pallet and storage item prefixes.
func Twox128(data []byte) []byte {
	out := make([]byte, 0, 16)
	for seed := uint64(0); seed < 2; seed++ {
		h := xxhash.NewWithSeed(seed)
		_, _ = h.Write(data)
		out = binary.LittleEndian.AppendUint64(out, h.Sum64())
	}
	return out
}

// Blake2128Concat hashes data with blake2b-128 and appends data itself.
func Blake2128Concat(data []byte) []byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err)
	}
	_, _ = h.Write(data)
	return append(h.Sum(nil), data...)
}

// StorageValueKey is the raw key of a plain storage value.
func StorageValueKey(pallet, item string) []byte {
	return append(Twox128([]byte(pallet)), Twox128([]byte(item))...)
}

// StorageMapKey is the raw key of a Blake2_128Concat storage map entry for
// the SCALE-encoded mapKey.
func StorageMapKey(pallet, item string, mapKey []byte) []byte {
	return append(StorageValueKey(pallet, item), Blake2128Concat(mapKey)...)
}
