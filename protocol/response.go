package protocol

import "time"

// StatusOK is the per-item status of a successful operation.
const StatusOK = 200

// Response is one element of a bulk response. Exactly one exists for every
// submitted request.
//
// See https://jolokia.org/reference/html/protocol.html#responses
type Response struct {
	// The originating request. Taken from the agent's echo when it agrees with
	// the submitted request, otherwise the submitted request itself.
	Request Request `json:"request"`

	// Result of the operation. Present on success, may be nil (e.g. a read
	// of a path that does not exist).
	Value interface{} `json:"value,omitempty"`

	// HTTP-like status of this item. 200 on success, >= 400 on failure.
	Status int `json:"status"`

	// Seconds since epoch, assigned by the agent.
	Timestamp int64 `json:"timestamp,omitempty"`

	// Previous values when history tracking is enabled on the agent.
	History []HistoricalValue `json:"history,omitempty"`

	// These members are present only on failure.
	Error      string      `json:"error,omitempty"`
	ErrorType  string      `json:"error_type,omitempty"`
	ErrorValue interface{} `json:"error_value,omitempty"`
	Stacktrace string      `json:"stacktrace,omitempty"`
}

// Returns true if the item did not fail.
func (r *Response) OK() bool {
	return r.Status < 400
}

// Returns the agent timestamp as time.Time.
func (r *Response) Time() time.Time {
	return time.Unix(r.Timestamp, 0)
}

// HistoricalValue is a value remembered by the agent history store.
//
// See https://jolokia.org/reference/html/protocol.html#history
type HistoricalValue struct {
	Value     interface{} `json:"value"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

func (h HistoricalValue) Time() time.Time {
	return time.Unix(h.Timestamp, 0)
}

// VersionInfo is the value of a version response.
//
// See https://jolokia.org/reference/html/protocol.html#version
type VersionInfo struct {
	Protocol string                 `json:"protocol"`
	Agent    string                 `json:"agent"`
	Config   map[string]interface{} `json:"config,omitempty"`
	Info     ServerInfo             `json:"info"`
}

// ServerInfo describes the server the agent is running in.
type ServerInfo struct {
	Product   string                 `json:"product,omitempty"`
	Vendor    string                 `json:"vendor,omitempty"`
	Version   string                 `json:"version,omitempty"`
	ExtraInfo map[string]interface{} `json:"extraInfo,omitempty"`
}
