package trustedcall

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"github.com/litentry/enclave-client/codec"
)

const (
	linkIdentityConsent = "By linking your identity to our platform, you're taking a step towards a more integrated experience. Please be assured, this process is safe and involves no transactions of your assets. "
	batchVCConsent      = "We are going to help you generate %d secure credential%s. Please be assured, this process is safe and involves no transactions of your assets. "
)

// Payload is what a signer is asked to sign for one call.
type Payload struct {
	// Hash is blake2b-256(call || nonce || shard || shard).
	Hash codec.H256
	// Message is the text the signature covers.
	Message string
	// ToSign is Message in the encoding the signer's wallet expects.
	ToSign string
}

// ConsentPrefix returns the human-readable sentence shown before the token
// for call.
func ConsentPrefix(call *codec.TrustedCall) string {
	switch {
	case call.IsLinkIdentity():
		return linkIdentityConsent
	case call.IsRequestBatchVC():
		n := len(call.RequestBatchVC.Assertions)
		plural := "s"
		if n == 1 {
			plural = ""
		}
		return fmt.Sprintf(batchVCConsent, n, plural)
	default:
		return ""
	}
}

// PayloadHash is blake2b-256 over the encoded call, the little-endian nonce
// and the shard twice.
func PayloadHash(call *codec.TrustedCall, nonce uint32, shard codec.H256) (codec.H256, error) {
	callBytes, err := codec.Encode(*call)
	if err != nil {
		return codec.H256{}, fmt.Errorf("trustedcall: encoding call: %w", err)
	}
	buf := make([]byte, 0, len(callBytes)+4+2*len(shard))
	buf = append(buf, callBytes...)
	buf = binary.LittleEndian.AppendUint32(buf, nonce)
	buf = append(buf, shard[:]...)
	buf = append(buf, shard[:]...)
	return blake2b.Sum256(buf), nil
}

// SigningPayload builds the payload signer must sign to authorize call.
// EVM signers get the message hex encoded for personal_sign; Bitcoin
// signers get the token without its 0x prefix.
func SigningPayload(call *codec.TrustedCall, nonce uint32, shard codec.H256, signer codec.Identity) (*Payload, error) {
	hash, err := PayloadHash(call, nonce, shard)
	if err != nil {
		return nil, err
	}
	token := hash.Hex()
	if signer.Kind == codec.IdentityBitcoin {
		token = strings.TrimPrefix(token, "0x")
	}
	message := ConsentPrefix(call) + "Token: " + token

	toSign := message
	if signer.Kind == codec.IdentityEvm {
		toSign = hexutil.Encode([]byte(message))
	}
	return &Payload{Hash: hash, Message: message, ToSign: toSign}, nil
}
