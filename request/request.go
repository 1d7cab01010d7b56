// Package request wraps signed trusted calls into encrypted envelopes ready
// for the enclave transport.
package request

import (
	"context"
	"fmt"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
	"github.com/litentry/enclave-client/shielding"
)

// KeySource resolves the enclave's shielding key and shard.
type KeySource interface {
	Resolve(ctx context.Context) (*shielding.Resolved, error)
}

// Signed pairs a trusted call with its authorization.
type Signed struct {
	Call      codec.TrustedCall
	Nonce     uint32
	Signature codec.MultiSignature
}

// NewSigned decodes signature in the default encoding for signer and pairs
// it with call.
func NewSigned(call codec.TrustedCall, nonce uint32, signer codec.Identity, signature string) (*Signed, error) {
	sig, err := encryption.DecodeSignature(signer, signature)
	if err != nil {
		return nil, err
	}
	return &Signed{Call: call, Nonce: nonce, Signature: sig}, nil
}

// Operation is the direct-call trusted operation carrying s.
func (s *Signed) Operation() codec.TrustedOperation {
	return codec.TrustedOperation{
		DirectCall: &codec.TrustedCallSigned{
			Call:      s.Call,
			Nonce:     s.Nonce,
			Signature: s.Signature,
		},
	}
}

// Build encrypts s into an AesRequest. A transport key distinct from the
// call's response key encrypts the operation and is itself wrapped under
// the shielding key.
func Build(ctx context.Context, keys KeySource, s *Signed) (*codec.AesRequest, error) {
	resolved, err := keys.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	op, err := codec.Encode(s.Operation())
	if err != nil {
		return nil, fmt.Errorf("request: encoding operation: %w", err)
	}

	transportKey, err := encryption.GenerateAesKey()
	if err != nil {
		return nil, err
	}
	payload, err := transportKey.Encrypt(op, nil)
	if err != nil {
		return nil, err
	}
	wrapped, err := encryption.EncryptWithShieldingKey(resolved.Key, transportKey[:])
	if err != nil {
		return nil, err
	}

	return &codec.AesRequest{
		Shard:   resolved.Shard,
		Key:     wrapped,
		Payload: *payload,
	}, nil
}
