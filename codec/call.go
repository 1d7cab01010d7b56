package codec

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

func encodeAll(enc scale.Encoder, fields ...scale.Encodeable) error {
	for _, f := range fields {
		if err := f.Encode(enc); err != nil {
			return err
		}
	}
	return nil
}

func decodeAll(dec scale.Decoder, fields ...scale.Decodeable) error {
	for _, f := range fields {
		if err := f.Decode(dec); err != nil {
			return err
		}
	}
	return nil
}

// LinkIdentity links Identity to Who's id graph, proven by Validation.
type LinkIdentity struct {
	Signer     Identity
	Who        Identity
	Identity   Identity
	Validation Bytes
	Networks   Web3Networks
	MaybeKey   OptionH256
	ReqExtHash H256
}

// IdentityUpdate toggles the status of a linked identity.
type IdentityUpdate struct {
	Signer     Identity
	Who        Identity
	Identity   Identity
	MaybeKey   OptionH256
	ReqExtHash H256
}

// SetIdentityNetworks replaces the networks a linked identity is active on.
type SetIdentityNetworks struct {
	Signer     Identity
	Who        Identity
	Identity   Identity
	Networks   Web3Networks
	MaybeKey   OptionH256
	ReqExtHash H256
}

// LinkIdentityCallback links an identity that was already validated by a
// trusted signer.
type LinkIdentityCallback struct {
	Signer     Identity
	Who        Identity
	Identity   Identity
	Networks   Web3Networks
	MaybeKey   OptionH256
	ReqExtHash H256
}

// RequestBatchVC requests one verifiable credential per assertion.
type RequestBatchVC struct {
	Signer     Identity
	Who        Identity
	Assertions Assertions
	MaybeKey   OptionH256
	ReqExtHash H256
}

// TrustedCall is a call executed inside the enclave. Exactly one variant
// must be set.
type TrustedCall struct {
	LinkIdentity         *LinkIdentity
	DeactivateIdentity   *IdentityUpdate
	ActivateIdentity     *IdentityUpdate
	SetIdentityNetworks  *SetIdentityNetworks
	LinkIdentityCallback *LinkIdentityCallback
	RequestBatchVC       *RequestBatchVC
}

// Variant indices of TrustedCall.
const (
	callLinkIdentity uint8 = iota
	callDeactivateIdentity
	callActivateIdentity
	callSetIdentityNetworks
	callLinkIdentityCallback
	callRequestBatchVC
)

// IsLinkIdentity reports whether the call is link_identity.
func (c *TrustedCall) IsLinkIdentity() bool {
	return c.LinkIdentity != nil
}

// IsRequestBatchVC reports whether the call is request_batch_vc.
func (c *TrustedCall) IsRequestBatchVC() bool {
	return c.RequestBatchVC != nil
}

func (c *TrustedCall) variant() (uint8, []scale.Encodeable, error) {
	var (
		tag    uint8
		fields []scale.Encodeable
		set    int
	)
	if v := c.LinkIdentity; v != nil {
		set++
		tag = callLinkIdentity
		fields = []scale.Encodeable{v.Signer, v.Who, v.Identity, v.Validation, v.Networks, v.MaybeKey, v.ReqExtHash}
	}
	if v := c.DeactivateIdentity; v != nil {
		set++
		tag = callDeactivateIdentity
		fields = []scale.Encodeable{v.Signer, v.Who, v.Identity, v.MaybeKey, v.ReqExtHash}
	}
	if v := c.ActivateIdentity; v != nil {
		set++
		tag = callActivateIdentity
		fields = []scale.Encodeable{v.Signer, v.Who, v.Identity, v.MaybeKey, v.ReqExtHash}
	}
	if v := c.SetIdentityNetworks; v != nil {
		set++
		tag = callSetIdentityNetworks
		fields = []scale.Encodeable{v.Signer, v.Who, v.Identity, v.Networks, v.MaybeKey, v.ReqExtHash}
	}
	if v := c.LinkIdentityCallback; v != nil {
		set++
		tag = callLinkIdentityCallback
		fields = []scale.Encodeable{v.Signer, v.Who, v.Identity, v.Networks, v.MaybeKey, v.ReqExtHash}
	}
	if v := c.RequestBatchVC; v != nil {
		set++
		tag = callRequestBatchVC
		fields = []scale.Encodeable{v.Signer, v.Who, v.Assertions, v.MaybeKey, v.ReqExtHash}
	}
	if set != 1 {
		return 0, nil, fmt.Errorf("codec: trusted call must have exactly one variant set, got %d", set)
	}
	return tag, fields, nil
}

// Method returns the snake_case method name of the call.
func (c *TrustedCall) Method() string {
	tag, _, err := c.variant()
	if err != nil {
		return "invalid"
	}
	return callNames[tag]
}

// MaybeKey returns the response key embedded in the call. Every variant
// carries one, second to last.
func (c *TrustedCall) MaybeKey() OptionH256 {
	_, fields, err := c.variant()
	if err != nil {
		return OptionH256{}
	}
	return fields[len(fields)-2].(OptionH256)
}

var callNames = [...]string{
	"link_identity",
	"deactivate_identity",
	"activate_identity",
	"set_identity_networks",
	"link_identity_callback",
	"request_batch_vc",
}

// Encode implements scale.Encodeable.
func (c TrustedCall) Encode(enc scale.Encoder) error {
	tag, fields, err := c.variant()
	if err != nil {
		return err
	}
	if err := enc.PushByte(tag); err != nil {
		return err
	}
	return encodeAll(enc, fields...)
}

// Decode implements scale.Decodeable.
func (c *TrustedCall) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*c = TrustedCall{}
	switch tag {
	case callLinkIdentity:
		v := &LinkIdentity{}
		c.LinkIdentity = v
		return decodeAll(dec, &v.Signer, &v.Who, &v.Identity, &v.Validation, &v.Networks, &v.MaybeKey, &v.ReqExtHash)
	case callDeactivateIdentity, callActivateIdentity:
		v := &IdentityUpdate{}
		if tag == callDeactivateIdentity {
			c.DeactivateIdentity = v
		} else {
			c.ActivateIdentity = v
		}
		return decodeAll(dec, &v.Signer, &v.Who, &v.Identity, &v.MaybeKey, &v.ReqExtHash)
	case callSetIdentityNetworks:
		v := &SetIdentityNetworks{}
		c.SetIdentityNetworks = v
		return decodeAll(dec, &v.Signer, &v.Who, &v.Identity, &v.Networks, &v.MaybeKey, &v.ReqExtHash)
	case callLinkIdentityCallback:
		v := &LinkIdentityCallback{}
		c.LinkIdentityCallback = v
		return decodeAll(dec, &v.Signer, &v.Who, &v.Identity, &v.Networks, &v.MaybeKey, &v.ReqExtHash)
	case callRequestBatchVC:
		v := &RequestBatchVC{}
		c.RequestBatchVC = v
		return decodeAll(dec, &v.Signer, &v.Who, &v.Assertions, &v.MaybeKey, &v.ReqExtHash)
	default:
		return fmt.Errorf("codec: unknown trusted call %d", tag)
	}
}

// TrustedCallSigned is a trusted call with the user's signature over its
// signing payload.
type TrustedCallSigned struct {
	Call      TrustedCall
	Nonce     uint32
	Signature MultiSignature
}

// Encode implements scale.Encodeable.
func (s TrustedCallSigned) Encode(enc scale.Encoder) error {
	return encodeAll(enc, s.Call, U32(s.Nonce), s.Signature)
}

// Decode implements scale.Decodeable.
func (s *TrustedCallSigned) Decode(dec scale.Decoder) error {
	var nonce U32
	if err := decodeAll(dec, &s.Call, &nonce, &s.Signature); err != nil {
		return err
	}
	s.Nonce = uint32(nonce)
	return nil
}

// TrustedOperation is the unit submitted to the enclave.
type TrustedOperation struct {
	IndirectCall *TrustedCallSigned
	DirectCall   *TrustedCallSigned
}

// Encode implements scale.Encodeable.
func (op TrustedOperation) Encode(enc scale.Encoder) error {
	switch {
	case op.IndirectCall != nil && op.DirectCall == nil:
		if err := enc.PushByte(0); err != nil {
			return err
		}
		return op.IndirectCall.Encode(enc)
	case op.DirectCall != nil && op.IndirectCall == nil:
		if err := enc.PushByte(1); err != nil {
			return err
		}
		return op.DirectCall.Encode(enc)
	default:
		return fmt.Errorf("codec: trusted operation must have exactly one variant set")
	}
}

// Decode implements scale.Decodeable.
func (op *TrustedOperation) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*op = TrustedOperation{}
	signed := &TrustedCallSigned{}
	switch tag {
	case 0:
		op.IndirectCall = signed
	case 1:
		op.DirectCall = signed
	default:
		return fmt.Errorf("codec: unknown trusted operation %d", tag)
	}
	return signed.Decode(dec)
}
