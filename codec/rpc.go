package codec

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// DirectRequestStatusKind is the transport-level status of an enclave frame.
type DirectRequestStatusKind uint8

const (
	StatusOk DirectRequestStatusKind = iota
	StatusTrustedOperationStatus
	StatusError
)

// String implements fmt.Stringer.
func (k DirectRequestStatusKind) String() string {
	switch k {
	case StatusOk:
		return "Ok"
	case StatusTrustedOperationStatus:
		return "TrustedOperationStatus"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("DirectRequestStatus(%d)", uint8(k))
	}
}

// TopStatusKind enumerates the lifecycle states of a trusted operation.
type TopStatusKind uint8

const (
	TopSubmitted TopStatusKind = iota
	TopFuture
	TopReady
	TopBroadcast
	TopInSidechainBlock
	TopRetracted
	TopFinalityTimeout
	TopFinalized
	TopUsurped
	TopDropped
	TopInvalid
	TopExecuted
)

var topStatusNames = [...]string{
	"Submitted",
	"Future",
	"Ready",
	"Broadcast",
	"InSidechainBlock",
	"Retracted",
	"FinalityTimeout",
	"Finalized",
	"Usurped",
	"Dropped",
	"Invalid",
	"TopExecuted",
}

// String implements fmt.Stringer.
func (k TopStatusKind) String() string {
	if int(k) < len(topStatusNames) {
		return topStatusNames[k]
	}
	return fmt.Sprintf("TrustedOperationStatus(%d)", uint8(k))
}

// TrustedOperationStatus is the status of a trusted operation. Only the
// fields belonging to Kind are meaningful.
type TrustedOperationStatus struct {
	Kind TopStatusKind

	// SidechainBlock is set for TopInSidechainBlock.
	SidechainBlock H256

	// Output and Success are set for TopExecuted.
	Output  []byte
	Success bool
}

// Encode implements scale.Encodeable.
func (s TrustedOperationStatus) Encode(enc scale.Encoder) error {
	if int(s.Kind) >= len(topStatusNames) {
		return fmt.Errorf("codec: unknown trusted operation status %d", s.Kind)
	}
	if err := enc.PushByte(byte(s.Kind)); err != nil {
		return err
	}
	switch s.Kind {
	case TopInSidechainBlock:
		return s.SidechainBlock.Encode(enc)
	case TopExecuted:
		if err := writeBytes(enc, s.Output); err != nil {
			return err
		}
		return writeBool(enc, s.Success)
	}
	return nil
}

// Decode implements scale.Decodeable.
func (s *TrustedOperationStatus) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*s = TrustedOperationStatus{Kind: TopStatusKind(tag)}
	switch s.Kind {
	case TopInSidechainBlock:
		return s.SidechainBlock.Decode(dec)
	case TopExecuted:
		if s.Output, err = readBytes(dec); err != nil {
			return err
		}
		s.Success, err = readBool(dec)
		return err
	}
	if int(tag) >= len(topStatusNames) {
		return fmt.Errorf("codec: unknown trusted operation status %d", tag)
	}
	return nil
}

// DirectRequestStatus is the status attached to every enclave frame.
type DirectRequestStatus struct {
	Kind DirectRequestStatusKind

	// Operation and Hash are set for StatusTrustedOperationStatus.
	Operation TrustedOperationStatus
	Hash      H256
}

// IsOk reports whether the status is the plain Ok variant.
func (s DirectRequestStatus) IsOk() bool {
	return s.Kind == StatusOk
}

// IsError reports whether the status is the transport Error variant.
func (s DirectRequestStatus) IsError() bool {
	return s.Kind == StatusError
}

// Encode implements scale.Encodeable.
func (s DirectRequestStatus) Encode(enc scale.Encoder) error {
	if s.Kind > StatusError {
		return fmt.Errorf("codec: unknown direct request status %d", s.Kind)
	}
	if err := enc.PushByte(byte(s.Kind)); err != nil {
		return err
	}
	if s.Kind != StatusTrustedOperationStatus {
		return nil
	}
	if err := s.Operation.Encode(enc); err != nil {
		return err
	}
	return s.Hash.Encode(enc)
}

// Decode implements scale.Decodeable. Unknown variants decode successfully
// so that the classifier can report them; their payload is not consumed.
func (s *DirectRequestStatus) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	*s = DirectRequestStatus{Kind: DirectRequestStatusKind(tag)}
	if s.Kind != StatusTrustedOperationStatus {
		return nil
	}
	if err := s.Operation.Decode(dec); err != nil {
		return err
	}
	return s.Hash.Decode(dec)
}

// String implements fmt.Stringer.
func (s DirectRequestStatus) String() string {
	if s.Kind == StatusTrustedOperationStatus {
		return fmt.Sprintf("TrustedOperationStatus(%s, %s)", s.Operation.Kind, s.Hash)
	}
	return s.Kind.String()
}

// WorkerRpcReturnValue is a single decoded frame from the enclave.
type WorkerRpcReturnValue struct {
	Value   []byte
	DoWatch bool
	Status  DirectRequestStatus
}

// Encode implements scale.Encodeable.
func (v WorkerRpcReturnValue) Encode(enc scale.Encoder) error {
	if err := writeBytes(enc, v.Value); err != nil {
		return err
	}
	if err := writeBool(enc, v.DoWatch); err != nil {
		return err
	}
	return v.Status.Encode(enc)
}

// Decode implements scale.Decodeable.
func (v *WorkerRpcReturnValue) Decode(dec scale.Decoder) error {
	var err error
	if v.Value, err = readBytes(dec); err != nil {
		return err
	}
	if v.DoWatch, err = readBool(dec); err != nil {
		return err
	}
	return v.Status.Decode(dec)
}
