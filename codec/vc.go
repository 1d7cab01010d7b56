package codec

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Assertion is a claim the enclave is asked to issue a credential for. The
// parameters are built by the caller and carried opaquely.
type Assertion struct {
	Kind   uint8
	Params []byte
}

var assertionNames = map[uint8]string{
	0:  "A1",
	1:  "A2",
	2:  "A3",
	3:  "A4",
	4:  "A6",
	5:  "A7",
	6:  "A8",
	7:  "A10",
	8:  "A11",
	9:  "A13",
	10: "A14",
	11: "A20",
	12: "Achainable",
	13: "OneBlock",
	14: "GenericDiscordRole",
	15: "BnbDomainHolding",
	16: "VIP3MembershipCard",
	17: "WeirdoGhostGangHolder",
	18: "LITStaking",
	19: "EVMAmountHolding",
	20: "CryptoSummary",
	21: "TokenHoldingAmount",
	22: "PlatformUser",
	23: "NftHolder",
	24: "Dynamic",
}

// Name returns the display name of the assertion kind.
func (a Assertion) Name() string {
	if name, ok := assertionNames[a.Kind]; ok {
		return name
	}
	return fmt.Sprintf("Assertion(%d)", a.Kind)
}

// String implements fmt.Stringer.
func (a Assertion) String() string {
	return fmt.Sprintf("%s, %s", a.Name(), hexutil.Encode(a.Params))
}

// Encode implements scale.Encodeable.
func (a Assertion) Encode(enc scale.Encoder) error {
	if err := enc.PushByte(a.Kind); err != nil {
		return err
	}
	return writeBytes(enc, a.Params)
}

// Decode implements scale.Decodeable.
func (a *Assertion) Decode(dec scale.Decoder) error {
	var err error
	if a.Kind, err = dec.ReadOneByte(); err != nil {
		return err
	}
	a.Params, err = readBytes(dec)
	return err
}

// Assertions is a Vec<Assertion>.
type Assertions []Assertion

// Encode implements scale.Encodeable.
func (as Assertions) Encode(enc scale.Encoder) error {
	if err := writeCompact(enc, uint64(len(as))); err != nil {
		return err
	}
	for _, a := range as {
		if err := a.Encode(enc); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements scale.Decodeable.
func (as *Assertions) Decode(dec scale.Decoder) error {
	n, err := readCompact(dec)
	if err != nil {
		return err
	}
	out := make(Assertions, 0, n)
	for i := uint64(0); i < n; i++ {
		var a Assertion
		if err := a.Decode(dec); err != nil {
			return err
		}
		out = append(out, a)
	}
	*as = out
	return nil
}

// ErrorDetailKind enumerates enclave error details.
type ErrorDetailKind uint8

const (
	DetailImportError ErrorDetailKind = iota
	DetailUnauthorizedSigner
	DetailStfError
	DetailSendStfRequestFailed
	DetailParseError
	DetailDataProviderError
	DetailInvalidIdentity
	DetailWrongWeb2Handle
	DetailUnexpectedMessage
	DetailVerifyWeb3SignatureFailed
	DetailNoEligibleIdentity
)

var detailNames = [...]string{
	"ImportError",
	"UnauthorizedSigner",
	"StfError",
	"SendStfRequestFailed",
	"ParseError",
	"DataProviderError",
	"InvalidIdentity",
	"WrongWeb2Handle",
	"UnexpectedMessage",
	"VerifyWeb3SignatureFailed",
	"NoEligibleIdentity",
}

func (k ErrorDetailKind) hasMessage() bool {
	return k == DetailStfError || k == DetailDataProviderError
}

// String implements fmt.Stringer.
func (k ErrorDetailKind) String() string {
	if int(k) < len(detailNames) {
		return detailNames[k]
	}
	return fmt.Sprintf("ErrorDetail(%d)", uint8(k))
}

// ErrorDetail describes why an enclave operation failed.
type ErrorDetail struct {
	Kind    ErrorDetailKind
	Message []byte
}

// String implements fmt.Stringer.
func (d ErrorDetail) String() string {
	if d.Kind.hasMessage() {
		return fmt.Sprintf("%s: %s", d.Kind, string(d.Message))
	}
	return d.Kind.String()
}

// Encode implements scale.Encodeable.
func (d ErrorDetail) Encode(enc scale.Encoder) error {
	if int(d.Kind) >= len(detailNames) {
		return fmt.Errorf("codec: unknown error detail %d", d.Kind)
	}
	if err := enc.PushByte(byte(d.Kind)); err != nil {
		return err
	}
	if d.Kind.hasMessage() {
		return writeBytes(enc, d.Message)
	}
	return nil
}

// Decode implements scale.Decodeable.
func (d *ErrorDetail) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if int(tag) >= len(detailNames) {
		return fmt.Errorf("codec: unknown error detail %d", tag)
	}
	*d = ErrorDetail{Kind: ErrorDetailKind(tag)}
	if d.Kind.hasMessage() {
		d.Message, err = readBytes(dec)
	}
	return err
}

// StfErrorKind enumerates state transition failures.
type StfErrorKind uint8

const (
	StfLinkIdentityFailed StfErrorKind = iota
	StfDeactivateIdentityFailed
	StfActivateIdentityFailed
	StfRequestVCFailed
	StfSetIdentityNetworksFailed
	StfInvalidAccount
	StfUnclassifiedError
	StfRemoveIdentityFailed
	StfEmptyIDGraph
	StfMissingPrivileges
	StfInvalidNonce
)

var stfNames = [...]string{
	"LinkIdentityFailed",
	"DeactivateIdentityFailed",
	"ActivateIdentityFailed",
	"RequestVCFailed",
	"SetIdentityNetworksFailed",
	"InvalidAccount",
	"UnclassifiedError",
	"RemoveIdentityFailed",
	"EmptyIDGraph",
	"MissingPrivileges",
	"InvalidNonce",
}

// String implements fmt.Stringer.
func (k StfErrorKind) String() string {
	if int(k) < len(stfNames) {
		return stfNames[k]
	}
	return fmt.Sprintf("StfError(%d)", uint8(k))
}

// StfError is an error raised by the enclave's state transition function.
type StfError struct {
	Kind StfErrorKind

	Detail    ErrorDetail // *Failed variants
	Assertion Assertion   // StfRequestVCFailed
	Identity  Identity    // StfMissingPrivileges
	Got       uint32      // StfInvalidNonce
	Expected  uint32      // StfInvalidNonce
}

// String implements fmt.Stringer.
func (e StfError) String() string {
	switch e.Kind {
	case StfLinkIdentityFailed, StfDeactivateIdentityFailed, StfActivateIdentityFailed,
		StfSetIdentityNetworksFailed, StfRemoveIdentityFailed:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	case StfRequestVCFailed:
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Detail, e.Assertion)
	case StfMissingPrivileges:
		return fmt.Sprintf("%s: %s", e.Kind, e.Identity)
	case StfInvalidNonce:
		return fmt.Sprintf("%s: got %d, expected %d", e.Kind, e.Got, e.Expected)
	default:
		return e.Kind.String()
	}
}

// Encode implements scale.Encodeable.
func (e StfError) Encode(enc scale.Encoder) error {
	if int(e.Kind) >= len(stfNames) {
		return fmt.Errorf("codec: unknown stf error %d", e.Kind)
	}
	if err := enc.PushByte(byte(e.Kind)); err != nil {
		return err
	}
	switch e.Kind {
	case StfLinkIdentityFailed, StfDeactivateIdentityFailed, StfActivateIdentityFailed,
		StfSetIdentityNetworksFailed, StfRemoveIdentityFailed:
		return e.Detail.Encode(enc)
	case StfRequestVCFailed:
		return encodeAll(enc, e.Assertion, e.Detail)
	case StfMissingPrivileges:
		return e.Identity.Encode(enc)
	case StfInvalidNonce:
		return encodeAll(enc, U32(e.Got), U32(e.Expected))
	}
	return nil
}

// Decode implements scale.Decodeable.
func (e *StfError) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if int(tag) >= len(stfNames) {
		return fmt.Errorf("codec: unknown stf error %d", tag)
	}
	*e = StfError{Kind: StfErrorKind(tag)}
	switch e.Kind {
	case StfLinkIdentityFailed, StfDeactivateIdentityFailed, StfActivateIdentityFailed,
		StfSetIdentityNetworksFailed, StfRemoveIdentityFailed:
		return e.Detail.Decode(dec)
	case StfRequestVCFailed:
		return decodeAll(dec, &e.Assertion, &e.Detail)
	case StfMissingPrivileges:
		return e.Identity.Decode(dec)
	case StfInvalidNonce:
		var got, expected U32
		if err := decodeAll(dec, &got, &expected); err != nil {
			return err
		}
		e.Got, e.Expected = uint32(got), uint32(expected)
	}
	return nil
}

// VCMPErrorKind enumerates credential request failures.
type VCMPErrorKind uint8

const (
	VCMPRequestVCFailed VCMPErrorKind = iota
	VCMPUnclassifiedError
)

// String implements fmt.Stringer.
func (k VCMPErrorKind) String() string {
	switch k {
	case VCMPRequestVCFailed:
		return "RequestVCFailed"
	case VCMPUnclassifiedError:
		return "UnclassifiedError"
	default:
		return fmt.Sprintf("VCMPError(%d)", uint8(k))
	}
}

// VCMPError is the error half of a credential request result.
type VCMPError struct {
	Kind      VCMPErrorKind
	Assertion Assertion // VCMPRequestVCFailed
	Detail    ErrorDetail
}

// Encode implements scale.Encodeable.
func (e VCMPError) Encode(enc scale.Encoder) error {
	switch e.Kind {
	case VCMPRequestVCFailed:
		return encodeAll(enc, scaleByte(e.Kind), e.Assertion, e.Detail)
	case VCMPUnclassifiedError:
		return encodeAll(enc, scaleByte(e.Kind), e.Detail)
	default:
		return fmt.Errorf("codec: unknown vcmp error %d", e.Kind)
	}
}

// Decode implements scale.Decodeable.
func (e *VCMPError) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*e = VCMPError{Kind: VCMPErrorKind(tag)}
	switch e.Kind {
	case VCMPRequestVCFailed:
		return decodeAll(dec, &e.Assertion, &e.Detail)
	case VCMPUnclassifiedError:
		return e.Detail.Decode(dec)
	default:
		return fmt.Errorf("codec: unknown vcmp error %d", tag)
	}
}

type scaleByte uint8

func (b scaleByte) Encode(enc scale.Encoder) error {
	return enc.PushByte(byte(b))
}

// RequestVcResultOrError is one streamed result of a batch credential
// request, tagged with the index of the originating assertion.
type RequestVcResultOrError struct {
	// Ok holds the encoded RequestVCResult on success; Err is set otherwise.
	Ok  []byte
	Err *VCMPError
	Idx uint32
	Len uint32
}

// IsOk reports whether the item succeeded.
func (r *RequestVcResultOrError) IsOk() bool {
	return r.Err == nil
}

// Encode implements scale.Encodeable.
func (r RequestVcResultOrError) Encode(enc scale.Encoder) error {
	if r.Err != nil {
		if err := encodeAll(enc, scaleByte(1), *r.Err); err != nil {
			return err
		}
	} else if err := encodeAll(enc, scaleByte(0), Bytes(r.Ok)); err != nil {
		return err
	}
	return encodeAll(enc, U32(r.Idx), U32(r.Len))
}

// Decode implements scale.Decodeable.
func (r *RequestVcResultOrError) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*r = RequestVcResultOrError{}
	switch tag {
	case 0:
		if r.Ok, err = readBytes(dec); err != nil {
			return err
		}
	case 1:
		r.Err = &VCMPError{}
		if err := r.Err.Decode(dec); err != nil {
			return err
		}
	default:
		return fmt.Errorf("codec: invalid result tag %d", tag)
	}
	var idx, n U32
	if err := decodeAll(dec, &idx, &n); err != nil {
		return err
	}
	r.Idx, r.Len = uint32(idx), uint32(n)
	return nil
}

// RequestVCResult is the successful outcome of one credential request.
type RequestVCResult struct {
	VcPayload         AesOutput
	PreMutatedIdGraph AesOutput
	PreIdGraphHash    H256
}

// Encode implements scale.Encodeable.
func (r RequestVCResult) Encode(enc scale.Encoder) error {
	return encodeAll(enc, r.VcPayload, r.PreMutatedIdGraph, r.PreIdGraphHash)
}

// Decode implements scale.Decodeable.
func (r *RequestVCResult) Decode(dec scale.Decoder) error {
	return decodeAll(dec, &r.VcPayload, &r.PreMutatedIdGraph, &r.PreIdGraphHash)
}

// LinkIdentityResult is the outcome of the identity management calls.
type LinkIdentityResult struct {
	MutatedIdGraph AesOutput
	IdGraphHash    H256
}

// Encode implements scale.Encodeable.
func (r LinkIdentityResult) Encode(enc scale.Encoder) error {
	return encodeAll(enc, r.MutatedIdGraph, r.IdGraphHash)
}

// Decode implements scale.Decodeable.
func (r *LinkIdentityResult) Decode(dec scale.Decoder) error {
	return decodeAll(dec, &r.MutatedIdGraph, &r.IdGraphHash)
}
