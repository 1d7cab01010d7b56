package codec

import (
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// IdentityKind is the network family of an identity.
type IdentityKind uint8

const (
	IdentityTwitter IdentityKind = iota
	IdentityDiscord
	IdentityGithub
	IdentitySubstrate
	IdentityEvm
	IdentityBitcoin
	IdentitySolana
)

var identityNames = [...]string{
	"Twitter",
	"Discord",
	"Github",
	"Substrate",
	"Evm",
	"Bitcoin",
	"Solana",
}

// String implements fmt.Stringer.
func (k IdentityKind) String() string {
	if int(k) < len(identityNames) {
		return identityNames[k]
	}
	return fmt.Sprintf("Identity(%d)", uint8(k))
}

// addressSize returns the fixed address size of web3 identities, or 0 for
// web2 handles which are length-prefixed.
func (k IdentityKind) addressSize() int {
	switch k {
	case IdentitySubstrate, IdentitySolana:
		return 32
	case IdentityEvm:
		return 20
	case IdentityBitcoin:
		return 33
	default:
		return 0
	}
}

// IsWeb3 reports whether the identity is a blockchain account.
func (k IdentityKind) IsWeb3() bool {
	return k.addressSize() != 0
}

// Identity is a user identity on a web2 or web3 network.
type Identity struct {
	Kind IdentityKind
	// Data is the handle for web2 identities and the raw address for web3
	// identities.
	Data []byte
}

// NewIdentity returns an identity after checking the address size.
func NewIdentity(kind IdentityKind, data []byte) (Identity, error) {
	if int(kind) >= len(identityNames) {
		return Identity{}, fmt.Errorf("codec: unknown identity kind %d", kind)
	}
	if size := kind.addressSize(); size != 0 && len(data) != size {
		return Identity{}, fmt.Errorf("codec: %s address must be %d bytes, got %d", kind, size, len(data))
	}
	return Identity{Kind: kind, Data: append([]byte(nil), data...)}, nil
}

// ParseIdentity parses "<kind>:<value>" where value is a 0x-prefixed address
// for web3 kinds and a plain handle for web2 kinds, e.g. "evm:0xab..".
func ParseIdentity(s string) (Identity, error) {
	kindStr, value, ok := strings.Cut(s, ":")
	if !ok {
		return Identity{}, fmt.Errorf("codec: identity %q: expected <kind>:<value>", s)
	}
	for i, name := range identityNames {
		if !strings.EqualFold(name, kindStr) {
			continue
		}
		kind := IdentityKind(i)
		if !kind.IsWeb3() {
			return NewIdentity(kind, []byte(value))
		}
		addr, err := hexutil.Decode(value)
		if err != nil {
			return Identity{}, fmt.Errorf("codec: identity %q: %w", s, err)
		}
		return NewIdentity(kind, addr)
	}
	return Identity{}, fmt.Errorf("codec: identity %q: unknown kind %q", s, kindStr)
}

// Encode implements scale.Encodeable.
func (id Identity) Encode(enc scale.Encoder) error {
	if int(id.Kind) >= len(identityNames) {
		return fmt.Errorf("codec: unknown identity kind %d", id.Kind)
	}
	if err := enc.PushByte(byte(id.Kind)); err != nil {
		return err
	}
	if size := id.Kind.addressSize(); size != 0 {
		return writeFixed(enc, id.Data, size)
	}
	return writeBytes(enc, id.Data)
}

// Decode implements scale.Decodeable.
func (id *Identity) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if int(tag) >= len(identityNames) {
		return fmt.Errorf("codec: unknown identity kind %d", tag)
	}
	id.Kind = IdentityKind(tag)
	if size := id.Kind.addressSize(); size != 0 {
		id.Data, err = readFixed(dec, size)
		return err
	}
	id.Data, err = readBytes(dec)
	return err
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	if id.Kind.IsWeb3() {
		return fmt.Sprintf("%s(%s)", id.Kind, hexutil.Encode(id.Data))
	}
	return fmt.Sprintf("%s(%s)", id.Kind, string(id.Data))
}

// Web3Network is a network an identity may be active on.
type Web3Network uint8

const (
	NetworkPolkadot Web3Network = iota
	NetworkKusama
	NetworkLitentry
	NetworkLitmus
	NetworkLitentryRococo
	NetworkKhala
	NetworkSubstrateTestnet
	NetworkEthereum
	NetworkBsc
	NetworkBitcoinP2tr
	NetworkBitcoinP2pkh
	NetworkBitcoinP2sh
	NetworkBitcoinP2wpkh
	NetworkBitcoinP2wsh
	NetworkPolygon
	NetworkArbitrum
	NetworkSolana
)

var networkNames = [...]string{
	"Polkadot",
	"Kusama",
	"Litentry",
	"Litmus",
	"LitentryRococo",
	"Khala",
	"SubstrateTestnet",
	"Ethereum",
	"Bsc",
	"BitcoinP2tr",
	"BitcoinP2pkh",
	"BitcoinP2sh",
	"BitcoinP2wpkh",
	"BitcoinP2wsh",
	"Polygon",
	"Arbitrum",
	"Solana",
}

// String implements fmt.Stringer.
func (n Web3Network) String() string {
	if int(n) < len(networkNames) {
		return networkNames[n]
	}
	return fmt.Sprintf("Web3Network(%d)", uint8(n))
}

// ParseWeb3Network parses a network by its case-insensitive name.
func ParseWeb3Network(s string) (Web3Network, error) {
	for i, name := range networkNames {
		if strings.EqualFold(name, s) {
			return Web3Network(i), nil
		}
	}
	return 0, fmt.Errorf("codec: unknown web3 network %q", s)
}

// Web3Networks is a Vec<Web3Network>.
type Web3Networks []Web3Network

// Encode implements scale.Encodeable.
func (ns Web3Networks) Encode(enc scale.Encoder) error {
	if err := writeCompact(enc, uint64(len(ns))); err != nil {
		return err
	}
	for _, n := range ns {
		if int(n) >= len(networkNames) {
			return fmt.Errorf("codec: unknown web3 network %d", n)
		}
		if err := enc.PushByte(byte(n)); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements scale.Decodeable.
func (ns *Web3Networks) Decode(dec scale.Decoder) error {
	n, err := readCompact(dec)
	if err != nil {
		return err
	}
	out := make(Web3Networks, 0, n)
	for i := uint64(0); i < n; i++ {
		b, err := dec.ReadOneByte()
		if err != nil {
			return err
		}
		if int(b) >= len(networkNames) {
			return fmt.Errorf("codec: unknown web3 network %d", b)
		}
		out = append(out, Web3Network(b))
	}
	*ns = out
	return nil
}

// SignatureKind is the crypto family of a signature.
type SignatureKind uint8

const (
	SignatureEd25519 SignatureKind = iota
	SignatureSr25519
	SignatureEcdsa
	SignatureEthereum
	SignatureBitcoin
)

var signatureNames = [...]string{"Ed25519", "Sr25519", "Ecdsa", "Ethereum", "Bitcoin"}

// String implements fmt.Stringer.
func (k SignatureKind) String() string {
	if int(k) < len(signatureNames) {
		return signatureNames[k]
	}
	return fmt.Sprintf("Signature(%d)", uint8(k))
}

// Size returns the fixed signature size of the family.
func (k SignatureKind) Size() int {
	switch k {
	case SignatureEd25519, SignatureSr25519:
		return 64
	default:
		return 65
	}
}

// MultiSignature is a signature tagged with its crypto family.
type MultiSignature struct {
	Kind SignatureKind
	Data []byte
}

// NewMultiSignature returns a signature after checking its size.
func NewMultiSignature(kind SignatureKind, data []byte) (MultiSignature, error) {
	if int(kind) >= len(signatureNames) {
		return MultiSignature{}, fmt.Errorf("codec: unknown signature kind %d", kind)
	}
	if len(data) != kind.Size() {
		return MultiSignature{}, fmt.Errorf("codec: %s signature must be %d bytes, got %d", kind, kind.Size(), len(data))
	}
	return MultiSignature{Kind: kind, Data: append([]byte(nil), data...)}, nil
}

// Encode implements scale.Encodeable.
func (s MultiSignature) Encode(enc scale.Encoder) error {
	if int(s.Kind) >= len(signatureNames) {
		return fmt.Errorf("codec: unknown signature kind %d", s.Kind)
	}
	if err := enc.PushByte(byte(s.Kind)); err != nil {
		return err
	}
	return writeFixed(enc, s.Data, s.Kind.Size())
}

// Decode implements scale.Decodeable.
func (s *MultiSignature) Decode(dec scale.Decoder) error {
	tag, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if int(tag) >= len(signatureNames) {
		return fmt.Errorf("codec: unknown signature kind %d", tag)
	}
	s.Kind = SignatureKind(tag)
	s.Data, err = readFixed(dec, s.Kind.Size())
	return err
}

// IdentityStatus is the activation state of a linked identity.
type IdentityStatus uint8

const (
	IdentityActive IdentityStatus = iota
	IdentityInactive
)

// String implements fmt.Stringer.
func (s IdentityStatus) String() string {
	switch s {
	case IdentityActive:
		return "Active"
	case IdentityInactive:
		return "Inactive"
	default:
		return fmt.Sprintf("IdentityStatus(%d)", uint8(s))
	}
}

// IdentityContext is the per-identity metadata kept in an id graph.
type IdentityContext struct {
	LinkBlock    uint32
	Web3Networks Web3Networks
	Status       IdentityStatus
}

// Encode implements scale.Encodeable.
func (c IdentityContext) Encode(enc scale.Encoder) error {
	if err := U32(c.LinkBlock).Encode(enc); err != nil {
		return err
	}
	if err := c.Web3Networks.Encode(enc); err != nil {
		return err
	}
	return enc.PushByte(byte(c.Status))
}

// Decode implements scale.Decodeable.
func (c *IdentityContext) Decode(dec scale.Decoder) error {
	var block U32
	if err := block.Decode(dec); err != nil {
		return err
	}
	c.LinkBlock = uint32(block)
	if err := c.Web3Networks.Decode(dec); err != nil {
		return err
	}
	b, err := dec.ReadOneByte()
	if err != nil {
		return err
	}
	if b > byte(IdentityInactive) {
		return fmt.Errorf("codec: unknown identity status %d", b)
	}
	c.Status = IdentityStatus(b)
	return nil
}

// IdGraphEntry is one identity in an id graph.
type IdGraphEntry struct {
	Identity Identity
	Context  IdentityContext
}

// IdGraph is the set of identities linked to a primary identity.
type IdGraph []IdGraphEntry

// Encode implements scale.Encodeable.
func (g IdGraph) Encode(enc scale.Encoder) error {
	if err := writeCompact(enc, uint64(len(g))); err != nil {
		return err
	}
	for _, e := range g {
		if err := e.Identity.Encode(enc); err != nil {
			return err
		}
		if err := e.Context.Encode(enc); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements scale.Decodeable.
func (g *IdGraph) Decode(dec scale.Decoder) error {
	n, err := readCompact(dec)
	if err != nil {
		return err
	}
	out := make(IdGraph, 0, n)
	for i := uint64(0); i < n; i++ {
		var e IdGraphEntry
		if err := e.Identity.Decode(dec); err != nil {
			return err
		}
		if err := e.Context.Decode(dec); err != nil {
			return err
		}
		out = append(out, e)
	}
	*g = out
	return nil
}
