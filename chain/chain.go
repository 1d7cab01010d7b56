// Package chain reads enclave registrations from parachain state.
package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
	"github.com/litentry/enclave-client/log"
	"github.com/litentry/enclave-client/shielding"
)

const (
	moduleName = "chain"

	teebagPallet          = "Teebag"
	enclaveIdentifierItem = "EnclaveIdentifier"
	enclaveRegistryItem   = "EnclaveRegistry"
)

// ErrNoEnclave is the error returned when no enclave of the requested worker
// type is registered.
var ErrNoEnclave = errors.New(moduleName, 1, "chain: no registered enclave")

// Registry returns the most recently registered enclave.
type Registry interface {
	LastEnclave(ctx context.Context) (*codec.EnclaveRecord, error)
}

// Caller issues raw JSON-RPC calls against a node.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// NodeRegistry reads teebag pallet storage over a node's JSON-RPC interface.
type NodeRegistry struct {
	caller     Caller
	workerType uint8
	logger     *log.Logger
	closer     func()
}

var (
	_ Registry                = (*NodeRegistry)(nil)
	_ shielding.EnclaveSource = (*NodeRegistry)(nil)
)

// NewNodeRegistry creates a registry backed by caller.
func NewNodeRegistry(caller Caller, workerType uint8, logger *log.Logger) *NodeRegistry {
	return &NodeRegistry{
		caller:     caller,
		workerType: workerType,
		logger:     logger.WithModule(moduleName),
	}
}

// DialNodeRegistry connects to the node at url (ws, wss, http or https).
func DialNodeRegistry(ctx context.Context, url string, workerType uint8, logger *log.Logger) (*NodeRegistry, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpc DialContext %s: %w", url, err)
	}
	r := NewNodeRegistry(client, workerType, logger)
	r.closer = client.Close
	return r, nil
}

// Close releases the node connection, if the registry owns one.
func (r *NodeRegistry) Close() {
	if r.closer != nil {
		r.closer()
	}
}

// LastEnclave returns the last enclave account registered for the worker
// type together with its registration.
func (r *NodeRegistry) LastEnclave(ctx context.Context) (*codec.EnclaveRecord, error) {
	var accounts codec.AccountIDs
	found, err := r.getStorage(ctx,
		StorageMapKey(teebagPallet, enclaveIdentifierItem, []byte{r.workerType}),
		&accounts,
	)
	if err != nil {
		return nil, fmt.Errorf("enclave identifiers: %w", err)
	}
	if !found || len(accounts) == 0 {
		return nil, errors.WithContext(ErrNoEnclave, fmt.Sprintf("worker type %d", r.workerType))
	}
	account := accounts[len(accounts)-1]

	var record codec.EnclaveRecord
	found, err = r.getStorage(ctx,
		StorageMapKey(teebagPallet, enclaveRegistryItem, account[:]),
		&record,
	)
	if err != nil {
		return nil, fmt.Errorf("enclave registry %s: %w", account.Hex(), err)
	}
	if !found {
		return nil, errors.WithContext(shielding.ErrEnclaveRecordMissing, account.Hex())
	}
	r.logger.Debug("fetched enclave record",
		"account", account.Hex(),
		"mrenclave", record.MrEnclave.Hex(),
		"url", string(record.URL),
	)
	return &record, nil
}

func (r *NodeRegistry) getStorage(ctx context.Context, key []byte, target interface{}) (bool, error) {
	var raw *hexutil.Bytes
	if err := r.caller.CallContext(ctx, &raw, "state_getStorage", hexutil.Encode(key)); err != nil {
		return false, fmt.Errorf("state_getStorage: %w", err)
	}
	if raw == nil {
		return false, nil
	}
	if err := codec.DecodeExact(*raw, target); err != nil {
		return false, err
	}
	return true, nil
}
