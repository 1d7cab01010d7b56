package encryption

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
)

// SignatureEncoding is the text encoding a wallet returns a signature in.
type SignatureEncoding uint8

const (
	EncodingHex SignatureEncoding = iota
	EncodingBase64
	EncodingBase58
)

// DefaultSignatureKind returns the crypto family a signer identity signs with.
func DefaultSignatureKind(signer codec.Identity) (codec.SignatureKind, error) {
	switch signer.Kind {
	case codec.IdentitySubstrate:
		return codec.SignatureSr25519, nil
	case codec.IdentityEvm:
		return codec.SignatureEthereum, nil
	case codec.IdentityBitcoin:
		return codec.SignatureBitcoin, nil
	case codec.IdentitySolana:
		return codec.SignatureEd25519, nil
	default:
		return 0, errors.WithContext(ErrUnsupportedSignature, fmt.Sprintf("%s identities cannot sign", signer.Kind))
	}
}

// DefaultSignatureEncoding returns the encoding wallets of the signer's
// network produce: base64 for Bitcoin, base58 for Solana, hex otherwise.
func DefaultSignatureEncoding(signer codec.Identity) SignatureEncoding {
	switch signer.Kind {
	case codec.IdentityBitcoin:
		return EncodingBase64
	case codec.IdentitySolana:
		return EncodingBase58
	default:
		return EncodingHex
	}
}

// DecodeSignature decodes a wallet signature for signer into a tagged
// multi-signature, using the signer's default family and encoding.
func DecodeSignature(signer codec.Identity, signature string) (codec.MultiSignature, error) {
	kind, err := DefaultSignatureKind(signer)
	if err != nil {
		return codec.MultiSignature{}, err
	}
	return DecodeSignatureAs(kind, DefaultSignatureEncoding(signer), signature)
}

// DecodeSignatureAs decodes a signature with an explicit family and encoding.
func DecodeSignatureAs(kind codec.SignatureKind, encoding SignatureEncoding, signature string) (codec.MultiSignature, error) {
	var (
		raw []byte
		err error
	)
	switch encoding {
	case EncodingHex:
		if !strings.HasPrefix(signature, "0x") {
			signature = "0x" + signature
		}
		raw, err = hexutil.Decode(signature)
	case EncodingBase64:
		raw, err = base64.StdEncoding.DecodeString(signature)
	case EncodingBase58:
		raw = base58.Decode(signature)
		if len(raw) == 0 {
			err = fmt.Errorf("invalid base58 string")
		}
	default:
		err = fmt.Errorf("unknown encoding %d", encoding)
	}
	if err != nil {
		return codec.MultiSignature{}, errors.WithContext(ErrSignatureEncoding, err.Error())
	}
	sig, err := codec.NewMultiSignature(kind, raw)
	if err != nil {
		return codec.MultiSignature{}, errors.WithContext(ErrSignatureEncoding, err.Error())
	}
	return sig, nil
}

// VerifySignature checks that sig was produced by signer over message.
// Ed25519 and Ethereum (personal_sign) signatures are supported.
func VerifySignature(signer codec.Identity, sig codec.MultiSignature, message []byte) error {
	switch sig.Kind {
	case codec.SignatureEd25519:
		if len(signer.Data) != ed25519.PublicKeySize {
			return errors.WithContext(ErrUnsupportedSignature, fmt.Sprintf("ed25519 signature from %s", signer.Kind))
		}
		if !ed25519.Verify(ed25519.PublicKey(signer.Data), message, sig.Data) {
			return ErrInvalidSignature
		}
		return nil
	case codec.SignatureEthereum:
		if signer.Kind != codec.IdentityEvm {
			return errors.WithContext(ErrUnsupportedSignature, fmt.Sprintf("ethereum signature from %s", signer.Kind))
		}
		rsv := append([]byte(nil), sig.Data...)
		if rsv[64] >= 27 {
			rsv[64] -= 27
		}
		pub, err := crypto.SigToPub(accounts.TextHash(message), rsv)
		if err != nil {
			return errors.WithContext(ErrInvalidSignature, err.Error())
		}
		if addr := crypto.PubkeyToAddress(*pub); !bytes.Equal(addr.Bytes(), signer.Data) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return errors.WithContext(ErrUnsupportedSignature, sig.Kind.String())
	}
}
