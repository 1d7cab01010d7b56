package codec

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

func testIdentity(t *testing.T, kind IdentityKind, fill byte) Identity {
	size := kind.addressSize()
	if size == 0 {
		size = 5
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = fill
	}
	id, err := NewIdentity(kind, data)
	require.NoError(t, err)
	return id
}

func TestWorkerRpcReturnValue(t *testing.T) {
	v := WorkerRpcReturnValue{
		Value:   []byte{0xde, 0xad},
		DoWatch: true,
		Status: DirectRequestStatus{
			Kind:      StatusTrustedOperationStatus,
			Operation: TrustedOperationStatus{Kind: TopInSidechainBlock, SidechainBlock: H256{1}},
			Hash:      H256{2},
		},
	}
	b, err := Encode(v)
	require.NoError(t, err)
	// value: compact(2) 0xdead, do_watch, status tag, inner tag, block hash, hash
	require.Equal(t, []byte{0x08, 0xde, 0xad, 0x01, 0x01, 0x04}, b[:6])
	require.Len(t, b, 6+32+32)

	var decoded WorkerRpcReturnValue
	require.NoError(t, DecodeExact(b, &decoded))
	require.Equal(t, v, decoded)
	require.Equal(t, "TrustedOperationStatus(InSidechainBlock, "+H256{2}.Hex()+")", decoded.Status.String())
}

func TestWorkerRpcReturnValueEmptyAndZero(t *testing.T) {
	var empty WorkerRpcReturnValue
	require.NoError(t, DecodeHex("0x000000", &empty))
	require.Len(t, empty.Value, 0)
	require.False(t, empty.DoWatch)
	require.True(t, empty.Status.IsOk())

	var zero WorkerRpcReturnValue
	require.NoError(t, DecodeHex("0x04000002", &zero))
	require.Equal(t, []byte{0x00}, zero.Value)
	require.True(t, zero.Status.IsError())
}

func TestTopExecuted(t *testing.T) {
	s := DirectRequestStatus{
		Kind:      StatusTrustedOperationStatus,
		Operation: TrustedOperationStatus{Kind: TopExecuted, Output: []byte("ok"), Success: true},
	}
	b, err := Encode(s)
	require.NoError(t, err)
	var decoded DirectRequestStatus
	require.NoError(t, DecodeExact(b, &decoded))
	require.Equal(t, s, decoded)
}

func TestDecodeExactTrailing(t *testing.T) {
	var u U32
	require.NoError(t, Decode([]byte{1, 0, 0, 0, 9}, &u))
	require.EqualValues(t, 1, u)
	require.Error(t, DecodeExact([]byte{1, 0, 0, 0, 9}, &u))
	require.Error(t, Decode([]byte{1, 0}, &u))
}

func TestTrustedCallLinkIdentity(t *testing.T) {
	call := TrustedCall{LinkIdentity: &LinkIdentity{
		Signer:     testIdentity(t, IdentitySubstrate, 1),
		Who:        testIdentity(t, IdentityEvm, 2),
		Identity:   testIdentity(t, IdentityTwitter, 'a'),
		Validation: Bytes{9, 9},
		Networks:   Web3Networks{NetworkPolkadot, NetworkLitentry},
		MaybeKey:   SomeH256(H256{3}),
		ReqExtHash: H256{4},
	}}
	require.True(t, call.IsLinkIdentity())
	require.False(t, call.IsRequestBatchVC())
	require.Equal(t, "link_identity", call.Method())

	b, err := Encode(call)
	require.NoError(t, err)
	require.Equal(t, byte(0), b[0])

	var decoded TrustedCall
	require.NoError(t, DecodeExact(b, &decoded))
	require.Equal(t, call, decoded)
}

func TestTrustedCallInvalid(t *testing.T) {
	_, err := Encode(TrustedCall{})
	require.Error(t, err)

	both := TrustedCall{
		ActivateIdentity:   &IdentityUpdate{},
		DeactivateIdentity: &IdentityUpdate{},
	}
	_, err = Encode(both)
	require.Error(t, err)
	require.Equal(t, "invalid", both.Method())
}

func TestTrustedOperationRoundTrip(t *testing.T) {
	sig, err := NewMultiSignature(SignatureEthereum, make([]byte, 65))
	require.NoError(t, err)
	op := TrustedOperation{DirectCall: &TrustedCallSigned{
		Call: TrustedCall{RequestBatchVC: &RequestBatchVC{
			Signer:     testIdentity(t, IdentityEvm, 1),
			Who:        testIdentity(t, IdentityEvm, 1),
			Assertions: Assertions{{Kind: 0, Params: []byte{}}, {Kind: 1, Params: []byte{7}}},
			MaybeKey:   SomeH256(H256{5}),
			ReqExtHash: H256{6},
		}},
		Nonce:     7,
		Signature: sig,
	}}
	b, err := Encode(op)
	require.NoError(t, err)
	require.Equal(t, byte(1), b[0])

	var decoded TrustedOperation
	require.NoError(t, DecodeExact(b, &decoded))
	require.NotNil(t, decoded.DirectCall)
	require.Nil(t, decoded.IndirectCall)
	require.EqualValues(t, 7, decoded.DirectCall.Nonce)
	require.Len(t, decoded.DirectCall.Call.RequestBatchVC.Assertions, 2)
	require.Equal(t, "A2", decoded.DirectCall.Call.RequestBatchVC.Assertions[1].Name())
}

func TestIdentity(t *testing.T) {
	_, err := NewIdentity(IdentityEvm, make([]byte, 19))
	require.Error(t, err)

	id, err := ParseIdentity("evm:0x" + "11223344556677889900aabbccddeeff00112233")
	require.NoError(t, err)
	require.Equal(t, IdentityEvm, id.Kind)
	require.Len(t, id.Data, 20)

	id, err = ParseIdentity("Twitter:alice")
	require.NoError(t, err)
	require.Equal(t, "Twitter(alice)", id.String())

	_, err = ParseIdentity("telegram:bob")
	require.Error(t, err)
	_, err = ParseIdentity("substrate")
	require.Error(t, err)
}

func TestMultiSignatureSize(t *testing.T) {
	_, err := NewMultiSignature(SignatureSr25519, make([]byte, 65))
	require.Error(t, err)
	s, err := NewMultiSignature(SignatureSr25519, make([]byte, 64))
	require.NoError(t, err)
	b, err := Encode(s)
	require.NoError(t, err)
	require.Len(t, b, 65)
}

func TestRequestVcResultOrError(t *testing.T) {
	ok := RequestVcResultOrError{Ok: []byte{1, 2, 3}, Idx: 2, Len: 3}
	b, err := Encode(ok)
	require.NoError(t, err)
	var decoded RequestVcResultOrError
	require.NoError(t, DecodeExact(b, &decoded))
	require.True(t, decoded.IsOk())
	require.EqualValues(t, 2, decoded.Idx)
	require.EqualValues(t, 3, decoded.Len)

	failed := RequestVcResultOrError{
		Err: &VCMPError{
			Kind:      VCMPRequestVCFailed,
			Assertion: Assertion{Kind: 1, Params: []byte{0xab}},
			Detail:    ErrorDetail{Kind: DetailDataProviderError, Message: []byte("timeout")},
		},
		Idx: 1,
		Len: 3,
	}
	b, err = Encode(failed)
	require.NoError(t, err)
	require.NoError(t, DecodeExact(b, &decoded))
	require.False(t, decoded.IsOk())
	require.Equal(t, "DataProviderError: timeout", decoded.Err.Detail.String())
	require.Equal(t, "A2, 0xab", decoded.Err.Assertion.String())
}

func TestStfErrorString(t *testing.T) {
	for _, tc := range []struct {
		err      StfError
		expected string
	}{
		{StfError{Kind: StfLinkIdentityFailed, Detail: ErrorDetail{Kind: DetailInvalidIdentity}}, "LinkIdentityFailed: InvalidIdentity"},
		{StfError{Kind: StfInvalidNonce, Got: 3, Expected: 5}, "InvalidNonce: got 3, expected 5"},
		{StfError{Kind: StfEmptyIDGraph}, "EmptyIDGraph"},
	} {
		b, err := Encode(tc.err)
		require.NoError(t, err)
		var decoded StfError
		require.NoError(t, DecodeExact(b, &decoded))
		require.Equal(t, tc.expected, decoded.String())
	}
}

func TestIdGraph(t *testing.T) {
	g := IdGraph{
		{Identity: testIdentity(t, IdentitySubstrate, 1), Context: IdentityContext{LinkBlock: 10, Web3Networks: Web3Networks{NetworkLitmus}, Status: IdentityActive}},
		{Identity: testIdentity(t, IdentityGithub, 'g'), Context: IdentityContext{LinkBlock: 11, Web3Networks: Web3Networks{}, Status: IdentityInactive}},
	}
	b, err := Encode(g)
	require.NoError(t, err)
	var decoded IdGraph
	require.NoError(t, DecodeExact(b, &decoded))
	require.Equal(t, g, decoded)
}

func TestEnclaveRecord(t *testing.T) {
	rec := EnclaveRecord{
		WorkerType:        1,
		MrEnclave:         H256{0xaa},
		LastSeenTimestamp: 1700000000000,
		URL:               []byte("wss://localhost:2000"),
		ShieldingPubkey:   OptionBytes{Some: true, Value: []byte(`{"n":[1],"e":[1]}`)},
		VcPubkey:          SomeH256(H256{0xbb}),
		SgxBuildMode:      2,
	}
	h, err := EncodeToHex(rec)
	require.NoError(t, err)
	b, err := hexutil.Decode(h)
	require.NoError(t, err)
	var decoded EnclaveRecord
	require.NoError(t, DecodeExact(b, &decoded))
	require.Equal(t, rec, decoded)
}
