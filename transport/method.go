package transport

// Method is a direct RPC method of the enclave worker.
type Method string

const (
	// MethodRequestVc requests a batch of credentials. Results stream back
	// one frame per assertion.
	MethodRequestVc Method = "author_requestVc"
	// MethodSubmitAndWatchAesRequest submits an encrypted trusted operation
	// and watches it until it leaves the pool.
	MethodSubmitAndWatchAesRequest Method = "author_submitAndWatchAesRequest"
	// MethodGetNextNonce returns the next trusted call nonce of an account.
	MethodGetNextNonce Method = "author_getNextNonce"
)

// Streaming reports whether every frame of the method is a result in its
// own right. Other methods only deliver their final frame.
func (m Method) Streaming() bool {
	return m == MethodRequestVc
}

// Request is a JSON-RPC call to the enclave.
type Request struct {
	Method Method
	Params []string
}

// NewRequest creates a request for method with positional params.
func NewRequest(method Method, params ...string) Request {
	return Request{Method: method, Params: params}
}
