package codec

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// AesNonceSize is the AES-GCM nonce size used by the enclave.
const AesNonceSize = 12

// AesOutput is the authenticated-encryption envelope shared by requests and
// enclave responses.
type AesOutput struct {
	Ciphertext []byte
	Aad        []byte
	Nonce      [AesNonceSize]byte
}

// Encode implements scale.Encodeable.
func (o AesOutput) Encode(enc scale.Encoder) error {
	if err := writeBytes(enc, o.Ciphertext); err != nil {
		return err
	}
	if err := writeBytes(enc, o.Aad); err != nil {
		return err
	}
	return enc.Write(o.Nonce[:])
}

// Decode implements scale.Decodeable.
func (o *AesOutput) Decode(dec scale.Decoder) error {
	var err error
	if o.Ciphertext, err = readBytes(dec); err != nil {
		return err
	}
	if o.Aad, err = readBytes(dec); err != nil {
		return err
	}
	return dec.Read(o.Nonce[:])
}

// AesRequest is the wire envelope for a request to the enclave.
type AesRequest struct {
	Shard H256
	// Key is the transport key wrapped under the shielding key.
	Key     []byte
	Payload AesOutput
}

// Encode implements scale.Encodeable.
func (r AesRequest) Encode(enc scale.Encoder) error {
	if err := r.Shard.Encode(enc); err != nil {
		return err
	}
	if err := writeBytes(enc, r.Key); err != nil {
		return err
	}
	return r.Payload.Encode(enc)
}

// Decode implements scale.Decodeable.
func (r *AesRequest) Decode(dec scale.Decoder) error {
	if err := r.Shard.Decode(dec); err != nil {
		return err
	}
	var err error
	if r.Key, err = readBytes(dec); err != nil {
		return err
	}
	return r.Payload.Decode(dec)
}
