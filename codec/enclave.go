package codec

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// EnclaveRecord is an enclave registration as stored on chain.
type EnclaveRecord struct {
	WorkerType        uint8
	WorkerMode        uint8
	MrEnclave         H256
	LastSeenTimestamp uint64
	URL               []byte
	ShieldingPubkey   OptionBytes
	VcPubkey          OptionH256
	SgxBuildMode      uint8
}

// Encode implements scale.Encodeable.
func (e EnclaveRecord) Encode(enc scale.Encoder) error {
	if err := encodeAll(enc, scaleByte(e.WorkerType), scaleByte(e.WorkerMode), e.MrEnclave); err != nil {
		return err
	}
	if err := enc.Encode(e.LastSeenTimestamp); err != nil {
		return err
	}
	return encodeAll(enc, Bytes(e.URL), e.ShieldingPubkey, e.VcPubkey, scaleByte(e.SgxBuildMode))
}

// Decode implements scale.Decodeable.
func (e *EnclaveRecord) Decode(dec scale.Decoder) error {
	var err error
	if e.WorkerType, err = dec.ReadOneByte(); err != nil {
		return err
	}
	if e.WorkerMode, err = dec.ReadOneByte(); err != nil {
		return err
	}
	if err = e.MrEnclave.Decode(dec); err != nil {
		return err
	}
	if err = dec.Decode(&e.LastSeenTimestamp); err != nil {
		return err
	}
	if e.URL, err = readBytes(dec); err != nil {
		return err
	}
	if err = decodeAll(dec, &e.ShieldingPubkey, &e.VcPubkey); err != nil {
		return err
	}
	e.SgxBuildMode, err = dec.ReadOneByte()
	return err
}

// Worker types registered with the teebag pallet.
const (
	WorkerIdentity  uint8 = 0
	WorkerBitAcross uint8 = 1
)

// AccountIDs is a Vec<AccountId32>.
type AccountIDs []H256

// Encode implements scale.Encodeable.
func (a AccountIDs) Encode(enc scale.Encoder) error {
	if err := writeCompact(enc, uint64(len(a))); err != nil {
		return err
	}
	for _, id := range a {
		if err := id.Encode(enc); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements scale.Decodeable.
func (a *AccountIDs) Decode(dec scale.Decoder) error {
	n, err := readCompact(dec)
	if err != nil {
		return err
	}
	ids := make(AccountIDs, n)
	for i := range ids {
		if err := ids[i].Decode(dec); err != nil {
			return err
		}
	}
	*a = ids
	return nil
}
