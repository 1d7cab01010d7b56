package transport

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/oasisprotocol/oasis-core/go/common/errors"

	"github.com/litentry/enclave-client/codec"
)

const (
	jsonRPCVersion = "2.0"

	// requestID is fixed because every request owns its connection.
	requestID = 1
)

type rpcRequest struct {
	JSONRPC string   `json:"jsonrpc"`
	Method  Method   `json:"method"`
	Params  []string `json:"params"`
	ID      int      `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *string         `json:"result"`
	Error   *rpcError       `json:"error"`
}

func encodeRequest(req Request) ([]byte, error) {
	params := req.Params
	if params == nil {
		params = []string{}
	}
	return json.Marshal(rpcRequest{
		JSONRPC: jsonRPCVersion,
		Method:  req.Method,
		Params:  params,
		ID:      requestID,
	})
}

// decodeFrame parses one inbound message into a worker return value.
func decodeFrame(data []byte) (*codec.WorkerRpcReturnValue, error) {
	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.WithContext(ErrMalformedFrame, err.Error())
	}
	if resp.JSONRPC != jsonRPCVersion || len(resp.ID) == 0 || (resp.Result == nil) == (resp.Error == nil) {
		return nil, errors.WithContext(ErrMalformedFrame, "not a JSON-RPC response")
	}
	if !bytes.Equal(bytes.TrimSpace(resp.ID), []byte(fmt.Sprint(requestID))) {
		return nil, errors.WithContext(ErrUnexpectedID, string(resp.ID))
	}
	if resp.Error != nil {
		return nil, errors.WithContext(ErrRPCError, fmt.Sprintf("%d: %s", resp.Error.Code, resp.Error.Message))
	}

	var frame codec.WorkerRpcReturnValue
	if err := codec.DecodeHex(*resp.Result, &frame); err != nil {
		return nil, errors.WithContext(ErrMalformedFrame, err.Error())
	}
	return &frame, nil
}
