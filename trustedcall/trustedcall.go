// Package trustedcall builds the trusted calls executed inside the enclave
// and the payloads users sign to authorize them.
package trustedcall

import (
	"crypto/rand"
	"fmt"

	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
)

const moduleName = "trustedcall"

var (
	// ErrUnknownMethod is the error returned for method names outside the
	// supported set.
	ErrUnknownMethod = errors.New(moduleName, 1, "trustedcall: unknown method")
	// ErrInvalidParams is the error returned when call parameters are
	// inconsistent.
	ErrInvalidParams = errors.New(moduleName, 2, "trustedcall: invalid parameters")
)

// Method names a trusted call.
type Method string

const (
	MethodLinkIdentity         Method = "link_identity"
	MethodDeactivateIdentity   Method = "deactivate_identity"
	MethodActivateIdentity     Method = "activate_identity"
	MethodSetIdentityNetworks  Method = "set_identity_networks"
	MethodLinkIdentityCallback Method = "link_identity_callback"
	MethodRequestBatchVC       Method = "request_batch_vc"
)

// Methods lists every supported method.
var Methods = []Method{
	MethodLinkIdentity,
	MethodDeactivateIdentity,
	MethodActivateIdentity,
	MethodSetIdentityNetworks,
	MethodLinkIdentityCallback,
	MethodRequestBatchVC,
}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	for _, m := range Methods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errors.WithContext(ErrUnknownMethod, s)
}

// Params are the method-specific fields of a trusted call.
type Params interface {
	Method() Method
}

// LinkIdentityParams links Identity to Who, proven by Validation.
type LinkIdentityParams struct {
	Who      codec.Identity
	Identity codec.Identity
	// Validation is the encoded validation data proving control of Identity.
	Validation []byte
	Networks   codec.Web3Networks
}

// IdentityUpdateParams deactivates or activates a linked identity.
type IdentityUpdateParams struct {
	Who      codec.Identity
	Identity codec.Identity
	Activate bool
}

// SetIdentityNetworksParams sets the networks a linked identity is used on.
type SetIdentityNetworksParams struct {
	Who      codec.Identity
	Identity codec.Identity
	Networks codec.Web3Networks
}

// LinkIdentityCallbackParams links an identity on behalf of a trusted
// signer that already validated it.
type LinkIdentityCallbackParams struct {
	Who      codec.Identity
	Identity codec.Identity
	Networks codec.Web3Networks
}

// RequestBatchVCParams requests one credential per assertion.
type RequestBatchVCParams struct {
	Who        codec.Identity
	Assertions codec.Assertions
}

func (LinkIdentityParams) Method() Method         { return MethodLinkIdentity }
func (LinkIdentityCallbackParams) Method() Method { return MethodLinkIdentityCallback }
func (SetIdentityNetworksParams) Method() Method  { return MethodSetIdentityNetworks }
func (RequestBatchVCParams) Method() Method       { return MethodRequestBatchVC }

func (p IdentityUpdateParams) Method() Method {
	if p.Activate {
		return MethodActivateIdentity
	}
	return MethodDeactivateIdentity
}

// Built is a freshly built trusted call and the response key it embeds.
// The enclave encrypts the call's results under Key, so Key must outlive
// the request.
type Built struct {
	Call       codec.TrustedCall
	Key        encryption.AesKey
	ReqExtHash codec.H256
}

// New builds a trusted call for params, signed by signer. Each call gets a
// fresh response key and idempotency hash.
func New(signer codec.Identity, params Params) (*Built, error) {
	if err := validate(params); err != nil {
		return nil, err
	}
	key, err := encryption.GenerateAesKey()
	if err != nil {
		return nil, err
	}
	var reqExtHash codec.H256
	if _, err = rand.Read(reqExtHash[:]); err != nil {
		return nil, fmt.Errorf("trustedcall: req_ext_hash: %w", err)
	}
	maybeKey := codec.SomeH256(key.Export())

	var call codec.TrustedCall
	switch p := params.(type) {
	case LinkIdentityParams:
		call.LinkIdentity = &codec.LinkIdentity{
			Signer:     signer,
			Who:        p.Who,
			Identity:   p.Identity,
			Validation: codec.Bytes(p.Validation),
			Networks:   p.Networks,
			MaybeKey:   maybeKey,
			ReqExtHash: reqExtHash,
		}
	case IdentityUpdateParams:
		update := &codec.IdentityUpdate{
			Signer:     signer,
			Who:        p.Who,
			Identity:   p.Identity,
			MaybeKey:   maybeKey,
			ReqExtHash: reqExtHash,
		}
		if p.Activate {
			call.ActivateIdentity = update
		} else {
			call.DeactivateIdentity = update
		}
	case SetIdentityNetworksParams:
		call.SetIdentityNetworks = &codec.SetIdentityNetworks{
			Signer:     signer,
			Who:        p.Who,
			Identity:   p.Identity,
			Networks:   p.Networks,
			MaybeKey:   maybeKey,
			ReqExtHash: reqExtHash,
		}
	case LinkIdentityCallbackParams:
		call.LinkIdentityCallback = &codec.LinkIdentityCallback{
			Signer:     signer,
			Who:        p.Who,
			Identity:   p.Identity,
			Networks:   p.Networks,
			MaybeKey:   maybeKey,
			ReqExtHash: reqExtHash,
		}
	case RequestBatchVCParams:
		call.RequestBatchVC = &codec.RequestBatchVC{
			Signer:     signer,
			Who:        p.Who,
			Assertions: p.Assertions,
			MaybeKey:   maybeKey,
			ReqExtHash: reqExtHash,
		}
	default:
		return nil, errors.WithContext(ErrUnknownMethod, fmt.Sprintf("%T", params))
	}

	return &Built{Call: call, Key: key, ReqExtHash: reqExtHash}, nil
}

func validate(params Params) error {
	invalid := func(msg string) error {
		return errors.WithContext(ErrInvalidParams, fmt.Sprintf("%s: %s", params.Method(), msg))
	}
	switch p := params.(type) {
	case LinkIdentityParams:
		if len(p.Validation) == 0 {
			return invalid("missing validation data")
		}
		return checkNetworks(p.Identity, p.Networks, invalid)
	case SetIdentityNetworksParams:
		return checkNetworks(p.Identity, p.Networks, invalid)
	case LinkIdentityCallbackParams:
		return checkNetworks(p.Identity, p.Networks, invalid)
	case RequestBatchVCParams:
		if len(p.Assertions) == 0 {
			return invalid("no assertions")
		}
	}
	return nil
}

func checkNetworks(id codec.Identity, networks codec.Web3Networks, invalid func(string) error) error {
	if !id.Kind.IsWeb3() && len(networks) > 0 {
		return invalid(fmt.Sprintf("%s identity cannot have web3 networks", id.Kind))
	}
	return nil
}
