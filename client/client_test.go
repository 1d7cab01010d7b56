package client

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/response"
	"github.com/litentry/enclave-client/shielding"
	"github.com/litentry/enclave-client/transport"
	"github.com/litentry/enclave-client/trustedcall"
)

var (
	testShard = codec.H256{0x5a, 0xa5}
	okStatus  = codec.DirectRequestStatus{Kind: codec.StatusOk}
)

type recordSource struct {
	record *codec.EnclaveRecord
}

func (s recordSource) LastEnclave(context.Context) (*codec.EnclaveRecord, error) {
	return s.record, nil
}

// fakeEnclave opens envelopes with the shielding private key and answers
// with frames produced by respond, encrypted under the call's response key.
type fakeEnclave struct {
	t       *testing.T
	priv    *rsa.PrivateKey
	nonce   uint32
	respond func(op *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue

	requests []transport.Request
	ops      []*codec.TrustedOperation
}

func (f *fakeEnclave) Send(_ context.Context, req transport.Request, onFrame transport.FrameHandler) ([]*codec.WorkerRpcReturnValue, error) {
	f.requests = append(f.requests, req)

	var frames []*codec.WorkerRpcReturnValue
	if req.Method == transport.MethodGetNextNonce {
		frames = []*codec.WorkerRpcReturnValue{{Value: codec.MustEncode(codec.U32(f.nonce)), Status: okStatus}}
	} else {
		op, key := f.open(req.Params[0])
		f.ops = append(f.ops, op)
		frames = f.respond(op, key)
	}

	var delivered []*codec.WorkerRpcReturnValue
	for _, frame := range frames {
		if req.Method.Streaming() || !frame.DoWatch {
			delivered = append(delivered, frame)
			if onFrame != nil {
				onFrame(frame)
			}
		}
	}
	if len(delivered) == 1 {
		return delivered, response.ExtractErrors(delivered[0])
	}
	return delivered, nil
}

func (f *fakeEnclave) open(param string) (*codec.TrustedOperation, encryption.AesKey) {
	var req codec.AesRequest
	require.NoError(f.t, codec.DecodeHex(param, &req))
	require.Equal(f.t, testShard, req.Shard)

	rawKey, err := rsa.DecryptOAEP(sha256.New(), nil, f.priv, req.Key, nil)
	require.NoError(f.t, err)
	transportKey, err := encryption.AesKeyFromBytes(rawKey)
	require.NoError(f.t, err)
	plain, err := transportKey.Decrypt(&req.Payload)
	require.NoError(f.t, err)

	var op codec.TrustedOperation
	require.NoError(f.t, codec.DecodeExact(plain, &op))
	maybeKey := op.DirectCall.Call.MaybeKey()
	require.True(f.t, maybeKey.Some)
	key, err := encryption.AesKeyFromBytes(maybeKey.Value[:])
	require.NoError(f.t, err)
	return &op, key
}

func newTestClient(t *testing.T, enclave *fakeEnclave) *Client {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	enclave.t = t
	enclave.priv = priv

	blob, err := shielding.MarshalPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	keys := shielding.NewContext(recordSource{&codec.EnclaveRecord{
		MrEnclave:       testShard,
		ShieldingPubkey: codec.OptionBytes{Some: true, Value: blob},
		VcPubkey:        codec.SomeH256(codec.H256{1}),
	}}, log.NewNopLogger())
	return New(keys, enclave, log.NewDefaultLogger("client-test"))
}

func evmSigner(t *testing.T) (codec.Identity, func(message string) string) {
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	id, err := codec.NewIdentity(codec.IdentityEvm, crypto.PubkeyToAddress(priv.PublicKey).Bytes())
	require.NoError(t, err)
	sign := func(message string) string {
		sig, err := crypto.Sign(accounts.TextHash([]byte(message)), priv)
		require.NoError(t, err)
		sig[64] += 27
		return hexutil.Encode(sig)
	}
	return id, sign
}

func TestGetEnclaveNonce(t *testing.T) {
	enclave := &fakeEnclave{nonce: 17}
	c := newTestClient(t, enclave)
	signer, _ := evmSigner(t)

	nonce, err := c.GetEnclaveNonce(context.Background(), signer)
	require.NoError(t, err)
	require.EqualValues(t, 17, nonce)

	require.Len(t, enclave.requests, 1)
	req := enclave.requests[0]
	require.Equal(t, transport.MethodGetNextNonce, req.Method)
	require.Equal(t, []string{base58.Encode(testShard[:]), hexutil.Encode(signer.Data)}, req.Params)
}

func TestLinkIdentity(t *testing.T) {
	twitter, err := codec.NewIdentity(codec.IdentityTwitter, []byte("alice"))
	require.NoError(t, err)

	enclave := &fakeEnclave{nonce: 4}
	enclave.respond = func(op *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue {
		call := op.DirectCall.Call.LinkIdentity
		require.NotNil(t, call)
		graph := codec.IdGraph{
			{Identity: call.Who, Context: codec.IdentityContext{LinkBlock: 1, Web3Networks: codec.Web3Networks{}}},
			{Identity: call.Identity, Context: codec.IdentityContext{LinkBlock: 9, Web3Networks: codec.Web3Networks{}}},
		}
		sealed, err := key.Encrypt(codec.MustEncode(graph), nil)
		require.NoError(t, err)
		result := codec.MustEncode(codec.LinkIdentityResult{MutatedIdGraph: *sealed, IdGraphHash: codec.H256{0x77}})
		inBlock := codec.DirectRequestStatus{
			Kind:      codec.StatusTrustedOperationStatus,
			Operation: codec.TrustedOperationStatus{Kind: codec.TopInSidechainBlock},
		}
		return []*codec.WorkerRpcReturnValue{
			{Value: []byte{}, DoWatch: true, Status: topStatus(codec.TopSubmitted)},
			{Value: result, DoWatch: false, Status: inBlock},
		}
	}
	c := newTestClient(t, enclave)
	signer, sign := evmSigner(t)

	pending, err := c.LinkIdentity(context.Background(), signer, trustedcall.LinkIdentityParams{
		Who:        signer,
		Identity:   twitter,
		Validation: []byte{0x01, 0x02},
	})
	require.NoError(t, err)
	require.Equal(t, hexutil.Encode([]byte(pending.Message)), pending.PayloadToSign)

	result, err := pending.Send(context.Background(), sign(pending.Message))
	require.NoError(t, err)
	require.Len(t, result.IdGraph, 2)
	require.Equal(t, twitter, result.IdGraph[1].Identity)
	require.Equal(t, codec.H256{0x77}, result.IdGraphHash)
	require.Equal(t, pending.TxHash, result.TxHash)

	require.Len(t, enclave.ops, 1)
	require.EqualValues(t, 4, enclave.ops[0].DirectCall.Nonce)
	require.Equal(t, codec.SignatureEthereum, enclave.ops[0].DirectCall.Signature.Kind)
}

func topStatus(kind codec.TopStatusKind) codec.DirectRequestStatus {
	return codec.DirectRequestStatus{
		Kind:      codec.StatusTrustedOperationStatus,
		Operation: codec.TrustedOperationStatus{Kind: kind},
	}
}

func TestLinkIdentityRejectsBadSignature(t *testing.T) {
	enclave := &fakeEnclave{}
	c := newTestClient(t, enclave)
	signer, _ := evmSigner(t)
	_, otherSign := evmSigner(t)
	target, err := codec.NewIdentity(codec.IdentityEvm, bytes.Repeat([]byte{2}, 20))
	require.NoError(t, err)

	pending, err := c.LinkIdentity(context.Background(), signer, trustedcall.LinkIdentityParams{
		Who:        signer,
		Identity:   target,
		Validation: []byte{1},
	})
	require.NoError(t, err)

	_, err = pending.Send(context.Background(), otherSign(pending.Message))
	require.ErrorIs(t, err, encryption.ErrInvalidSignature)
	require.Empty(t, enclave.ops)
}

func TestSetIdentityNetworksStfError(t *testing.T) {
	enclave := &fakeEnclave{}
	enclave.respond = func(*codec.TrustedOperation, encryption.AesKey) []*codec.WorkerRpcReturnValue {
		stf := codec.MustEncode(codec.StfError{
			Kind:   codec.StfSetIdentityNetworksFailed,
			Detail: codec.ErrorDetail{Kind: codec.DetailStfError, Message: []byte("identity not found")},
		})
		return []*codec.WorkerRpcReturnValue{{Value: stf, Status: topStatus(codec.TopFinalized)}}
	}
	c := newTestClient(t, enclave)
	signer, sign := evmSigner(t)
	target, err := codec.NewIdentity(codec.IdentityEvm, bytes.Repeat([]byte{2}, 20))
	require.NoError(t, err)

	pending, err := c.SetIdentityNetworks(context.Background(), signer, trustedcall.SetIdentityNetworksParams{
		Who:      signer,
		Identity: target,
		Networks: codec.Web3Networks{codec.NetworkEthereum},
	})
	require.NoError(t, err)

	_, err = pending.Send(context.Background(), sign(pending.Message))
	require.ErrorIs(t, err, response.ErrTrustedCallFailed)
	require.ErrorContains(t, err, "identity not found")
}

func TestLinkIdentityCallbackWithUnverifiableSigner(t *testing.T) {
	enclave := &fakeEnclave{}
	enclave.respond = func(op *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue {
		require.NotNil(t, op.DirectCall.Call.LinkIdentityCallback)
		sealed, err := key.Encrypt(codec.MustEncode(codec.IdGraph{}), nil)
		require.NoError(t, err)
		return []*codec.WorkerRpcReturnValue{{
			Value:  codec.MustEncode(codec.LinkIdentityResult{MutatedIdGraph: *sealed}),
			Status: okStatus,
		}}
	}
	c := newTestClient(t, enclave)

	// Sr25519 signatures cannot be checked locally and pass through.
	trusted, err := codec.NewIdentity(codec.IdentitySubstrate, bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)
	who, _ := evmSigner(t)
	target, err := codec.NewIdentity(codec.IdentityEvm, bytes.Repeat([]byte{2}, 20))
	require.NoError(t, err)

	pending, err := c.LinkIdentityCallback(context.Background(), trusted, trustedcall.LinkIdentityCallbackParams{
		Who:      who,
		Identity: target,
	})
	require.NoError(t, err)
	require.Equal(t, pending.Message, pending.PayloadToSign)

	result, err := pending.Send(context.Background(), hexutil.Encode(bytes.Repeat([]byte{1}, 64)))
	require.NoError(t, err)
	require.Empty(t, result.IdGraph)
}

func TestRequestBatchVCReordersResults(t *testing.T) {
	assertions := codec.Assertions{
		{Kind: 0, Params: []byte{}},
		{Kind: 1, Params: []byte{0xab}},
		{Kind: 2, Params: []byte{}},
	}

	enclave := &fakeEnclave{}
	enclave.respond = func(op *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue {
		require.EqualValues(t, 0, op.DirectCall.Nonce)
		sent := op.DirectCall.Call.RequestBatchVC.Assertions
		require.Len(t, sent, len(assertions))
		require.EqualValues(t, 1, sent[1].Kind)
		require.Equal(t, []byte{0xab}, sent[1].Params)

		ok := func(idx uint32, vc string) *codec.WorkerRpcReturnValue {
			sealed, err := key.Encrypt([]byte(vc), nil)
			require.NoError(t, err)
			graph, err := key.Encrypt([]byte{0}, nil)
			require.NoError(t, err)
			item := codec.RequestVcResultOrError{
				Ok:  codec.MustEncode(codec.RequestVCResult{VcPayload: *sealed, PreMutatedIdGraph: *graph}),
				Idx: idx,
				Len: 3,
			}
			return &codec.WorkerRpcReturnValue{Value: codec.MustEncode(item), DoWatch: true, Status: okStatus}
		}
		failed := &codec.WorkerRpcReturnValue{
			Value: codec.MustEncode(codec.RequestVcResultOrError{
				Err: &codec.VCMPError{
					Kind:      codec.VCMPRequestVCFailed,
					Assertion: assertions[1],
					Detail:    codec.ErrorDetail{Kind: codec.DetailDataProviderError, Message: []byte("upstream down")},
				},
				Idx: 1,
				Len: 3,
			}),
			DoWatch: true,
			Status:  okStatus,
		}

		last := ok(0, "vc-0")
		last.DoWatch = false
		return []*codec.WorkerRpcReturnValue{
			ok(2, "vc-2"),
			failed,
			last,
		}
	}
	c := newTestClient(t, enclave)
	signer, sign := evmSigner(t)

	pending, err := c.RequestBatchVC(context.Background(), signer, signer, assertions)
	require.NoError(t, err)
	require.Contains(t, pending.Message, "generate 3 secure credentials")

	var arrival []uint32
	results, err := pending.Send(context.Background(), sign(pending.Message), func(err error, r *VcResult) {
		arrival = append(arrival, r.Index)
		if r.Index == 1 {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
		}
	})
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 1, 0}, arrival)

	require.Len(t, results, 3)
	require.Equal(t, "vc-0", string(results[0].VcPayload))
	require.Equal(t, "vc-2", string(results[2].VcPayload))
	for i, r := range results {
		require.EqualValues(t, i, r.Index)
	}

	var vcErr *response.VcError
	require.ErrorAs(t, results[1].Err, &vcErr)
	require.EqualValues(t, 1, vcErr.Index)
	require.Equal(t, "RequestVCFailed. DataProviderError: upstream down (A2, 0xab)", vcErr.Message)
	require.Empty(t, results[1].VcPayload)

	require.Len(t, enclave.requests, 1)
	require.Equal(t, transport.MethodRequestVc, enclave.requests[0].Method)
}

func TestRequestBatchVCMissingItem(t *testing.T) {
	enclave := &fakeEnclave{}
	enclave.respond = func(_ *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue {
		sealed, err := key.Encrypt([]byte("vc-1"), nil)
		require.NoError(t, err)
		item := codec.RequestVcResultOrError{
			Ok:  codec.MustEncode(codec.RequestVCResult{VcPayload: *sealed, PreMutatedIdGraph: *sealed}),
			Idx: 1,
			Len: 2,
		}
		return []*codec.WorkerRpcReturnValue{{Value: codec.MustEncode(item), Status: okStatus}}
	}
	c := newTestClient(t, enclave)
	signer, sign := evmSigner(t)

	pending, err := c.RequestBatchVC(context.Background(), signer, signer, codec.Assertions{
		{Kind: 0, Params: []byte{}},
		{Kind: 3, Params: []byte{}},
	})
	require.NoError(t, err)

	results, err := pending.Send(context.Background(), sign(pending.Message), nil)
	require.NoError(t, err)
	require.ErrorIs(t, results[0].Err, response.ErrMissingResult)
	require.NoError(t, results[1].Err)
	require.Equal(t, "vc-1", string(results[1].VcPayload))
}

func TestRequestBatchVCSingularConsent(t *testing.T) {
	c := newTestClient(t, &fakeEnclave{})
	signer, _ := evmSigner(t)

	pending, err := c.RequestBatchVC(context.Background(), signer, signer, codec.Assertions{{Kind: 0, Params: []byte{}}})
	require.NoError(t, err)
	require.Contains(t, pending.Message, "generate 1 secure credential.")
}

func TestUpdateIdentity(t *testing.T) {
	enclave := &fakeEnclave{nonce: 2}
	enclave.respond = func(op *codec.TrustedOperation, key encryption.AesKey) []*codec.WorkerRpcReturnValue {
		require.NotNil(t, op.DirectCall.Call.ActivateIdentity)
		require.Nil(t, op.DirectCall.Call.DeactivateIdentity)
		sealed, err := key.Encrypt(codec.MustEncode(codec.IdGraph{}), nil)
		require.NoError(t, err)
		return []*codec.WorkerRpcReturnValue{{
			Value:  codec.MustEncode(codec.LinkIdentityResult{MutatedIdGraph: *sealed, IdGraphHash: codec.H256{9}}),
			Status: topStatus(codec.TopInSidechainBlock),
		}}
	}
	c := newTestClient(t, enclave)
	signer, sign := evmSigner(t)
	target, err := codec.NewIdentity(codec.IdentityEvm, bytes.Repeat([]byte{3}, 20))
	require.NoError(t, err)

	pending, err := c.UpdateIdentity(context.Background(), signer, trustedcall.IdentityUpdateParams{
		Who:      signer,
		Identity: target,
		Activate: true,
	})
	require.NoError(t, err)
	require.NotContains(t, pending.Message, "By linking")

	result, err := pending.Send(context.Background(), sign(pending.Message))
	require.NoError(t, err)
	require.Equal(t, codec.H256{9}, result.IdGraphHash)
	require.EqualValues(t, 2, enclave.ops[0].DirectCall.Nonce)
}
