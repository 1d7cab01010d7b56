// Package shielding resolves and caches the enclave's RSA shielding key and
// shard identifier from chain state.
package shielding

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/log"
)

const moduleName = "shielding"

var (
	// ErrEnclaveRecordMissing is the error returned when chain state has no
	// usable enclave registration.
	ErrEnclaveRecordMissing = errors.New(moduleName, 1, "shielding: enclave record missing")
	// ErrMalformedShieldingKey is the error returned when the registered
	// shielding key blob cannot be parsed.
	ErrMalformedShieldingKey = errors.New(moduleName, 2, "shielding: malformed shielding key")
)

// EnclaveSource returns the most recently registered enclave.
type EnclaveSource interface {
	LastEnclave(ctx context.Context) (*codec.EnclaveRecord, error)
}

// Resolved is the pinned shielding key and shard.
type Resolved struct {
	Key   *rsa.PublicKey
	Shard codec.H256
}

// Context lazily resolves the shielding key and shard once and serves them
// from memory afterwards. It is safe for concurrent use; concurrent callers
// of an unresolved Context share a single chain lookup.
type Context struct {
	source EnclaveSource
	logger *log.Logger

	mu       sync.Mutex
	resolved *Resolved
}

// NewContext creates an unresolved Context backed by source.
func NewContext(source EnclaveSource, logger *log.Logger) *Context {
	return &Context{
		source: source,
		logger: logger.WithModule(moduleName),
	}
}

// Resolve returns the cached key and shard, querying the chain on first use.
// Failed resolutions are not cached.
func (c *Context) Resolve(ctx context.Context) (*Resolved, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved != nil {
		return c.resolved, nil
	}

	record, err := c.source.LastEnclave(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying enclave record: %w", err)
	}
	resolved, err := FromRecord(record)
	if err != nil {
		return nil, err
	}
	c.logger.Info("resolved shielding key",
		"shard", resolved.Shard.Hex(),
		"modulus_bits", resolved.Key.N.BitLen(),
	)
	c.resolved = resolved
	return resolved, nil
}

// Key returns the enclave's shielding public key.
func (c *Context) Key(ctx context.Context) (*rsa.PublicKey, error) {
	r, err := c.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return r.Key, nil
}

// Shard returns the shard identifier of the enclave.
func (c *Context) Shard(ctx context.Context) (codec.H256, error) {
	r, err := c.Resolve(ctx)
	if err != nil {
		return codec.H256{}, err
	}
	return r.Shard, nil
}

// Invalidate drops the cached resolution so the next call re-reads chain
// state. Useful after an enclave rotation.
func (c *Context) Invalidate() {
	c.mu.Lock()
	c.resolved = nil
	c.mu.Unlock()
}

// FromRecord extracts the shielding key and shard from an enclave record.
// The shard is the enclave measurement.
func FromRecord(record *codec.EnclaveRecord) (*Resolved, error) {
	if record == nil {
		return nil, ErrEnclaveRecordMissing
	}
	if !record.ShieldingPubkey.Some || len(record.ShieldingPubkey.Value) == 0 {
		return nil, errors.WithContext(ErrEnclaveRecordMissing, "shielding_pubkey is empty")
	}
	if !record.VcPubkey.Some {
		return nil, errors.WithContext(ErrEnclaveRecordMissing, "vc_pubkey is empty")
	}
	key, err := ParsePublicKey(record.ShieldingPubkey.Value)
	if err != nil {
		return nil, err
	}
	return &Resolved{Key: key, Shard: record.MrEnclave}, nil
}

// shieldingKeyJSON is the registered key blob. Both components are
// little-endian byte arrays.
type shieldingKeyJSON struct {
	N []uint16 `json:"n"`
	E []uint16 `json:"e"`
}

// ParsePublicKey parses a registered shielding key blob into an RSA key.
func ParsePublicKey(blob []byte) (*rsa.PublicKey, error) {
	var raw shieldingKeyJSON
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, errors.WithContext(ErrMalformedShieldingKey, err.Error())
	}
	n, err := littleEndianInt(raw.N)
	if err != nil {
		return nil, errors.WithContext(ErrMalformedShieldingKey, "n: "+err.Error())
	}
	e, err := littleEndianInt(raw.E)
	if err != nil {
		return nil, errors.WithContext(ErrMalformedShieldingKey, "e: "+err.Error())
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, errors.WithContext(ErrMalformedShieldingKey, "e: out of range")
	}
	if n.BitLen() < 1024 {
		return nil, errors.WithContext(ErrMalformedShieldingKey, "n: modulus too small")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// MarshalPublicKey renders key in the registered blob format.
func MarshalPublicKey(key *rsa.PublicKey) ([]byte, error) {
	return json.Marshal(shieldingKeyJSON{
		N: toLittleEndian(key.N.Bytes()),
		E: toLittleEndian(big.NewInt(int64(key.E)).Bytes()),
	})
}

func littleEndianInt(le []uint16) (*big.Int, error) {
	if len(le) == 0 {
		return nil, fmt.Errorf("empty")
	}
	be := make([]byte, len(le))
	for i, v := range le {
		if v > 0xff {
			return nil, fmt.Errorf("byte %d out of range: %d", i, v)
		}
		be[len(le)-1-i] = byte(v)
	}
	return new(big.Int).SetBytes(be), nil
}

func toLittleEndian(be []byte) []uint16 {
	le := make([]uint16, len(be))
	for i, b := range be {
		le[len(be)-1-i] = uint16(b)
	}
	return le
}
