package jolokia

import (
	"errors"

	"github.com/kroksys/jolokia/protocol"
	"go.uber.org/zap"
)

// ErrResultsConsumed is returned by All when Next was already used on the stream.
var ErrResultsConsumed = errors.New("jolokia: results already consumed")

// Results is a single-use stream over the results of one bulk exchange.
// Items are decoded on demand, in submission order. Once Next returned
// false the stream stays exhausted, it cannot be restarted.
//
//	for results.Next() {
//		resp := results.Response()
//	}
//	if err := results.Err(); err != nil { ... }
//
// A Results must not be used from several goroutines at once.
type Results struct {
	requests protocol.BatchRequest
	elems    protocol.BatchResponse
	decoded  []protocol.Response
	logger   *zap.Logger

	pos     int
	started bool
	current protocol.Response
	err     error
}

func newResults(requests protocol.BatchRequest, elems protocol.BatchResponse, logger *zap.Logger) *Results {
	return &Results{
		requests: requests,
		elems:    elems,
		logger:   logger,
	}
}

// Returns a stream over responses that were already decoded.
func newDecodedResults(decoded []protocol.Response) *Results {
	return &Results{
		decoded: decoded,
		logger:  zap.NewNop(),
	}
}

// Len returns the number of results of the exchange, which is always the
// number of submitted requests.
func (r *Results) Len() int {
	if r.decoded != nil {
		return len(r.decoded)
	}
	return len(r.elems)
}

// Next decodes the next result. It returns false when the stream is
// exhausted or a result could not be decoded, see Err.
func (r *Results) Next() bool {
	r.started = true
	if r.err != nil || r.pos >= r.Len() {
		r.current = protocol.Response{}
		return false
	}
	i := r.pos
	r.pos++

	if r.decoded != nil {
		r.current = r.decoded[i]
		return true
	}

	resp, corr, err := protocol.DecodeResponse(r.elems[i], r.requests[i], i)
	if err != nil {
		r.logger.Error("Invalid result", zap.Int("index", i), zap.Error(err))
		r.err = err
		r.current = protocol.Response{}
		return false
	}
	if corr == protocol.CorrelationConflict {
		r.logger.Warn("Agent echo does not match submitted request, using submitted request",
			zap.Int("index", i), zap.String("type", string(r.requests[i].Type)))
	}
	r.current = resp
	return true
}

// Response returns the result decoded by the last call to Next.
func (r *Results) Response() protocol.Response {
	return r.current
}

// Err returns the error that stopped the stream, if any.
func (r *Results) Err() error {
	return r.err
}

// All drains the stream and returns every result. It fails with
// ErrResultsConsumed if Next was called before.
func (r *Results) All() ([]protocol.Response, error) {
	if r.started {
		return nil, ErrResultsConsumed
	}
	all := make([]protocol.Response, 0, r.Len())
	for r.Next() {
		all = append(all, r.current)
	}
	if r.err != nil {
		return nil, r.err
	}
	return all, nil
}
