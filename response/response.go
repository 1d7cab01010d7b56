// Package response classifies and decrypts enclave responses.
package response

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/encryption"
)

const moduleName = "response"

var (
	// ErrEmptyResponse is the error returned when a frame carries no value.
	ErrEmptyResponse = errors.New(moduleName, 1, "response: empty response")
	// ErrUnhandledStatus is the error returned for unknown frame statuses.
	ErrUnhandledStatus = errors.New(moduleName, 2, "response: unhandled status")
	// ErrInvalidTrustedOperation is the error returned when the enclave
	// rejects the operation as invalid.
	ErrInvalidTrustedOperation = errors.New(moduleName, 3, "Invalid TrustedOperation..")
	// ErrTrustedCallFailed is the error returned when the call failed inside
	// the enclave's state transition function.
	ErrTrustedCallFailed = errors.New(moduleName, 4, "response: trusted call failed")
	// ErrEnclaveError is the error returned for frames with an Error status.
	ErrEnclaveError = errors.New(moduleName, 5, "response: enclave error")
	// ErrMissingResult is the error returned when a request completed
	// without the frame a caller needs.
	ErrMissingResult = errors.New(moduleName, 6, "response: missing result")
)

// ExtractErrors reports the application error carried by a frame, if any.
//
// Ok frames and operations that are merely Submitted or InSidechainBlock
// are successful. Otherwise a value that decodes exactly as an STF error
// fails with ErrTrustedCallFailed, an Invalid operation fails with
// ErrInvalidTrustedOperation, and any other operation status succeeds.
// Error frames fail with ErrEnclaveError.
func ExtractErrors(v *codec.WorkerRpcReturnValue) error {
	switch v.Status.Kind {
	case codec.StatusOk:
		return nil
	case codec.StatusTrustedOperationStatus:
	case codec.StatusError:
		return errors.WithContext(ErrEnclaveError, ErrorMessage(v.Value))
	default:
		return errors.WithContext(ErrUnhandledStatus, v.Status.String())
	}

	switch v.Status.Operation.Kind {
	case codec.TopSubmitted, codec.TopInSidechainBlock:
		return nil
	}

	var stfErr codec.StfError
	if len(v.Value) > 0 && codec.DecodeExact(v.Value, &stfErr) == nil {
		return errors.WithContext(ErrTrustedCallFailed, stfErr.String())
	}
	if v.Status.Operation.Kind == codec.TopInvalid {
		return ErrInvalidTrustedOperation
	}
	return nil
}

// CheckEmptyOrError fails on frames without a value and on frames with an
// Error status. A single zero byte is a value, not an empty response.
func CheckEmptyOrError(v *codec.WorkerRpcReturnValue) error {
	if len(v.Value) == 0 {
		return ErrEmptyResponse
	}
	if v.Status.IsError() {
		return errors.WithContext(ErrEnclaveError, ErrorMessage(v.Value))
	}
	return nil
}

// ErrorMessage decodes the SCALE string carried by an Error frame, falling
// back to hex when the value is not one.
func ErrorMessage(value []byte) string {
	var msg codec.Bytes
	if err := codec.DecodeExact(value, &msg); err != nil {
		return hexutil.Encode(value)
	}
	return string(msg)
}

// Final returns the last frame of a completed request.
func Final(frames []*codec.WorkerRpcReturnValue) (*codec.WorkerRpcReturnValue, error) {
	if len(frames) == 0 {
		return nil, ErrMissingResult
	}
	return frames[len(frames)-1], nil
}

// DecodeLinkIdentityResult decodes the value of a successful identity
// management frame.
func DecodeLinkIdentityResult(v *codec.WorkerRpcReturnValue) (*codec.LinkIdentityResult, error) {
	if err := CheckEmptyOrError(v); err != nil {
		return nil, err
	}
	var result codec.LinkIdentityResult
	if err := codec.DecodeExact(v.Value, &result); err != nil {
		return nil, fmt.Errorf("decoding link identity result: %w", err)
	}
	return &result, nil
}

// DecryptIdGraph decrypts and decodes an id graph with the response key
// that was embedded in the originating call.
func DecryptIdGraph(key encryption.AesKey, out *codec.AesOutput) (codec.IdGraph, error) {
	plain, err := key.Decrypt(out)
	if err != nil {
		return nil, err
	}
	var graph codec.IdGraph
	if err := codec.DecodeExact(plain, &graph); err != nil {
		return nil, fmt.Errorf("decoding id graph: %w", err)
	}
	return graph, nil
}

// DecodeNonce decodes the value of an author_getNextNonce frame.
func DecodeNonce(v *codec.WorkerRpcReturnValue) (uint32, error) {
	if err := CheckEmptyOrError(v); err != nil {
		return 0, err
	}
	var nonce codec.U32
	if err := codec.DecodeExact(v.Value, &nonce); err != nil {
		return 0, fmt.Errorf("decoding nonce: %w", err)
	}
	return uint32(nonce), nil
}
