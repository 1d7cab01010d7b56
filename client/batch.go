package client

import (
	"context"
	"fmt"

	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/response"
	"github.com/litentry/enclave-client/transport"
	"github.com/litentry/enclave-client/trustedcall"
)

// batchNonce is sent with every batch credential request; the credential
// flow does not consume trusted call nonces.
const batchNonce = 0

// VcResult is the outcome of one assertion of a batch request.
type VcResult struct {
	Index uint32
	// VcPayload is the decrypted credential; empty when Err is set.
	VcPayload []byte
	// PartialResult is the decoded item as streamed by the enclave.
	PartialResult *response.VcItem
	Err           error
}

// VcHandler is called as each assertion of a batch resolves, in arrival
// order. err is the item's failure, if any.
type VcHandler func(err error, result *VcResult)

// BatchVCRequest is a batch credential request awaiting its signature.
type BatchVCRequest struct {
	PayloadToSign string
	Message       string
	TxHash        codec.H256

	client *Client
	call   *prepared
	count  int
}

// RequestBatchVC prepares a request_batch_vc call for who, one credential
// per assertion.
func (c *Client) RequestBatchVC(ctx context.Context, signer codec.Identity, who codec.Identity, assertions codec.Assertions) (*BatchVCRequest, error) {
	p, err := c.prepare(ctx, signer, trustedcall.RequestBatchVCParams{
		Who:        who,
		Assertions: assertions,
	}, batchNonce)
	if err != nil {
		return nil, err
	}
	return &BatchVCRequest{
		PayloadToSign: p.payload.ToSign,
		Message:       p.payload.Message,
		TxHash:        p.txHash,
		client:        c,
		call:          p,
		count:         len(assertions),
	}, nil
}

// Send submits the batch authorized by signature. onResult, if not nil,
// sees each item as it arrives. The returned slice is positional: entry i
// belongs to assertion i regardless of arrival order. Item failures are
// reported in VcResult.Err and do not fail the batch.
func (r *BatchVCRequest) Send(ctx context.Context, signature string, onResult VcHandler) ([]*VcResult, error) {
	c := r.client

	payload, err := c.envelope(ctx, r.call, signature)
	if err != nil {
		return nil, err
	}

	results := make([]*VcResult, r.count)
	handle := func(frame *codec.WorkerRpcReturnValue) {
		result := r.resolve(frame)
		if result == nil {
			return
		}
		if int(result.Index) >= len(results) {
			c.logger.Warn("vc result index out of range", "index", result.Index, "assertions", len(results))
			return
		}
		results[result.Index] = result
		if onResult != nil {
			onResult(result.Err, result)
		}
	}

	if _, err = c.sender.Send(ctx, transport.NewRequest(transport.MethodRequestVc, payload), handle); err != nil {
		return nil, fmt.Errorf("request_batch_vc: %w", err)
	}

	for i, result := range results {
		if result == nil {
			results[i] = &VcResult{
				Index: uint32(i),
				Err:   errors.WithContext(response.ErrMissingResult, fmt.Sprintf("assertion %d", i)),
			}
		}
	}
	return results, nil
}

// resolve decodes and decrypts one streamed item. Undecodable frames are
// logged and yield nil since they cannot be placed.
func (r *BatchVCRequest) resolve(frame *codec.WorkerRpcReturnValue) *VcResult {
	c := r.client
	item, err := response.ParseRequestVcResultOrError(frame)
	if err != nil {
		c.logger.Warn("undecodable vc result", "err", err)
		return nil
	}
	result := &VcResult{Index: item.Index, PartialResult: item}
	if item.Err != nil {
		result.Err = item.Err
		return result
	}
	if result.VcPayload, err = response.DecryptVcPayload(r.call.built.Key, item.Result); err != nil {
		result.Err = &response.VcError{Index: item.Index, Message: err.Error()}
	}
	return result
}
