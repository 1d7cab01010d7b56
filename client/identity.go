package client

import (
	"context"
	"fmt"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/response"
	"github.com/litentry/enclave-client/transport"
	"github.com/litentry/enclave-client/trustedcall"
)

// IdGraphResult is the outcome of an identity management call.
type IdGraphResult struct {
	IdGraph     codec.IdGraph
	IdGraphHash codec.H256
	TxHash      codec.H256
}

// IdentityRequest is an identity management call awaiting its signature.
type IdentityRequest struct {
	// PayloadToSign is handed to the signer's wallet.
	PayloadToSign string
	// Message is the text the signature covers.
	Message string
	// TxHash identifies the call.
	TxHash codec.H256

	client *Client
	call   *prepared
}

// Send submits the call authorized by signature and returns the mutated id
// graph, decrypted with the call's response key.
func (r *IdentityRequest) Send(ctx context.Context, signature string) (*IdGraphResult, error) {
	c := r.client
	method := r.call.built.Call.Method()

	payload, err := c.envelope(ctx, r.call, signature)
	if err != nil {
		return nil, err
	}
	frames, err := c.sender.Send(ctx, transport.NewRequest(transport.MethodSubmitAndWatchAesRequest, payload), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	final, err := response.Final(frames)
	if err != nil {
		return nil, err
	}
	if err = response.ExtractErrors(final); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	result, err := response.DecodeLinkIdentityResult(final)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	graph, err := response.DecryptIdGraph(r.call.built.Key, &result.MutatedIdGraph)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	c.logger.Info("identity call completed",
		"method", method,
		"tx_hash", r.TxHash.Hex(),
		"id_graph_size", len(graph),
	)
	return &IdGraphResult{
		IdGraph:     graph,
		IdGraphHash: result.IdGraphHash,
		TxHash:      r.TxHash,
	}, nil
}

func (c *Client) identityRequest(ctx context.Context, signer codec.Identity, params trustedcall.Params) (*IdentityRequest, error) {
	nonce, err := c.GetEnclaveNonce(ctx, signer)
	if err != nil {
		return nil, err
	}
	p, err := c.prepare(ctx, signer, params, nonce)
	if err != nil {
		return nil, err
	}
	return &IdentityRequest{
		PayloadToSign: p.payload.ToSign,
		Message:       p.payload.Message,
		TxHash:        p.txHash,
		client:        c,
		call:          p,
	}, nil
}

// LinkIdentity prepares a link_identity call signed by signer.
func (c *Client) LinkIdentity(ctx context.Context, signer codec.Identity, params trustedcall.LinkIdentityParams) (*IdentityRequest, error) {
	return c.identityRequest(ctx, signer, params)
}

// LinkIdentityCallback prepares a link_identity_callback call. The signer
// is the trusted party that already validated the identity.
func (c *Client) LinkIdentityCallback(ctx context.Context, signer codec.Identity, params trustedcall.LinkIdentityCallbackParams) (*IdentityRequest, error) {
	return c.identityRequest(ctx, signer, params)
}

// SetIdentityNetworks prepares a set_identity_networks call.
func (c *Client) SetIdentityNetworks(ctx context.Context, signer codec.Identity, params trustedcall.SetIdentityNetworksParams) (*IdentityRequest, error) {
	return c.identityRequest(ctx, signer, params)
}

// UpdateIdentity prepares a deactivate_identity or activate_identity call.
func (c *Client) UpdateIdentity(ctx context.Context, signer codec.Identity, params trustedcall.IdentityUpdateParams) (*IdentityRequest, error) {
	return c.identityRequest(ctx, signer, params)
}
