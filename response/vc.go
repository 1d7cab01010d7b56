package response

import (
	"fmt"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
)

// VcError is the failure of one item of a batch credential request.
type VcError struct {
	Index   uint32
	Message string
}

func (e *VcError) Error() string {
	return e.Message
}

// VcItem is one decoded item of a batch credential request.
type VcItem struct {
	Index uint32
	Len   uint32
	// Result is set on success, Err otherwise.
	Result *codec.RequestVCResult
	Err    *VcError
}

// ParseRequestVcResultOrError decodes a streamed batch credential item.
// Item failures are returned in VcItem.Err; the error return is reserved
// for frames that cannot be decoded at all.
func ParseRequestVcResultOrError(v *codec.WorkerRpcReturnValue) (*VcItem, error) {
	if err := CheckEmptyOrError(v); err != nil {
		return nil, err
	}
	var raw codec.RequestVcResultOrError
	if err := codec.DecodeExact(v.Value, &raw); err != nil {
		return nil, fmt.Errorf("decoding vc result: %w", err)
	}
	item := &VcItem{Index: raw.Idx, Len: raw.Len}
	if !raw.IsOk() {
		item.Err = &VcError{Index: raw.Idx, Message: FormatVCMPError(raw.Err)}
		return item, nil
	}

	var result codec.RequestVCResult
	if err := codec.DecodeExact(raw.Ok, &result); err != nil {
		return nil, fmt.Errorf("decoding vc result %d: %w", raw.Idx, err)
	}
	item.Result = &result
	return item, nil
}

// FormatVCMPError renders a credential request failure for display.
func FormatVCMPError(e *codec.VCMPError) string {
	if e.Kind == codec.VCMPRequestVCFailed {
		return fmt.Sprintf("%s. %s (%s)", e.Kind, e.Detail, e.Assertion)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// DecryptVcPayload decrypts the credential of a successful item.
func DecryptVcPayload(key encryption.AesKey, r *codec.RequestVCResult) ([]byte, error) {
	return key.Decrypt(&r.VcPayload)
}
