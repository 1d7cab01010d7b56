// Package client composes shielding, call building, envelopes, transport
// and response handling into end-to-end enclave operations.
package client

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/oasisprotocol/oasis-core/go/common/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/request"
	"github.com/litentry/enclave-client/response"
	"github.com/litentry/enclave-client/shielding"
	"github.com/litentry/enclave-client/transport"
	"github.com/litentry/enclave-client/trustedcall"
)

const moduleName = "client"

// Sender performs one request against the enclave.
type Sender interface {
	Send(ctx context.Context, req transport.Request, onFrame transport.FrameHandler) ([]*codec.WorkerRpcReturnValue, error)
}

// Client runs enclave operations. It is safe for concurrent use.
type Client struct {
	keys   *shielding.Context
	sender Sender
	logger *log.Logger
}

// New creates a client resolving enclave keys through keys and sending
// through sender.
func New(keys *shielding.Context, sender Sender, logger *log.Logger) *Client {
	return &Client{
		keys:   keys,
		sender: sender,
		logger: logger.WithModule(moduleName),
	}
}

// GetEnclaveNonce returns the next trusted call nonce of signer.
func (c *Client) GetEnclaveNonce(ctx context.Context, signer codec.Identity) (uint32, error) {
	shard, err := c.keys.Shard(ctx)
	if err != nil {
		return 0, err
	}
	frames, err := c.sender.Send(ctx, transport.NewRequest(transport.MethodGetNextNonce,
		base58.Encode(shard[:]),
		hexutil.Encode(signer.Data),
	), nil)
	if err != nil {
		return 0, fmt.Errorf("author_getNextNonce: %w", err)
	}
	final, err := response.Final(frames)
	if err != nil {
		return 0, err
	}
	return response.DecodeNonce(final)
}

// prepared is a built call awaiting its signature.
type prepared struct {
	signer  codec.Identity
	built   *trustedcall.Built
	nonce   uint32
	payload *trustedcall.Payload
	txHash  codec.H256
}

func (c *Client) prepare(ctx context.Context, signer codec.Identity, params trustedcall.Params, nonce uint32) (*prepared, error) {
	shard, err := c.keys.Shard(ctx)
	if err != nil {
		return nil, err
	}
	built, err := trustedcall.New(signer, params)
	if err != nil {
		return nil, err
	}
	payload, err := trustedcall.SigningPayload(&built.Call, nonce, shard, signer)
	if err != nil {
		return nil, err
	}
	callBytes, err := codec.Encode(built.Call)
	if err != nil {
		return nil, err
	}
	return &prepared{
		signer:  signer,
		built:   built,
		nonce:   nonce,
		payload: payload,
		txHash:  blake2b.Sum256(callBytes),
	}, nil
}

// envelope checks signature where the signer's scheme allows it and wraps
// the signed call for transport.
func (c *Client) envelope(ctx context.Context, p *prepared, signature string) (string, error) {
	signed, err := request.NewSigned(p.built.Call, p.nonce, p.signer, signature)
	if err != nil {
		return "", err
	}
	switch err = encryption.VerifySignature(p.signer, signed.Signature, []byte(p.payload.Message)); {
	case err == nil:
	case errors.Is(err, encryption.ErrUnsupportedSignature):
		c.logger.Debug("signature not verified locally", "signer", p.signer.Kind.String(), "kind", signed.Signature.Kind.String())
	default:
		return "", err
	}

	aesRequest, err := request.Build(ctx, c.keys, signed)
	if err != nil {
		return "", err
	}
	return codec.EncodeToHex(*aesRequest)
}
