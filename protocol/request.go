package protocol

import (
	"bytes"
	"encoding/json"
)

// Request is a single Jolokia operation. A Request has no identity of its own,
// inside a batch it is identified by its position.
//
// See https://jolokia.org/reference/html/protocol.html#post-request
type Request struct {
	// Operation kind. This member is REQUIRED.
	Type Operation `json:"type"`

	// MBean name or pattern. Required for read, write, exec and search.
	MBean string `json:"mbean,omitempty"`

	// Attribute names for read and write. Empty reads every attribute of the MBean.
	Attribute Attributes `json:"attribute,omitempty"`

	// Inner path into an attribute value, or into the MBean tree for list.
	Path string `json:"path,omitempty"`

	// Value to set. Only used by write.
	Value interface{} `json:"value,omitempty"`

	// Name of the JMX operation (optionally with signature). Only used by exec.
	OperationName string `json:"operation,omitempty"`

	// Arguments for the JMX operation. Only used by exec.
	Arguments []interface{} `json:"arguments,omitempty"`

	// Proxy target, when the agent runs in proxy mode.
	Target *ProxyTarget `json:"target,omitempty"`

	// Processing parameters for this request.
	Config *ProcessingConfig `json:"config,omitempty"`
}

// Attributes holds one or more attribute names. A single name is sent as a
// plain string, several names as an array.
type Attributes []string

func (a Attributes) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*a = Attributes{name}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*a = names
	return nil
}

// ProxyTarget is the target section of a proxy request. URL is a JSR-160
// service URL reachable from the proxy agent.
//
// See https://jolokia.org/reference/html/protocol.html#protocol-proxy
type ProxyTarget struct {
	URL      string `json:"url"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// ProcessingConfig carries the Jolokia processing parameters of a request.
// Zero values are omitted and the agent defaults apply.
//
// See https://jolokia.org/reference/html/protocol.html#processing-parameters
type ProcessingConfig struct {
	MaxDepth          int    `json:"maxDepth,omitempty"`
	MaxCollectionSize int    `json:"maxCollectionSize,omitempty"`
	MaxObjects        int    `json:"maxObjects,omitempty"`
	IgnoreErrors      bool   `json:"ignoreErrors,omitempty"`
	MimeType          string `json:"mimeType,omitempty"`
	CanonicalNaming   *bool  `json:"canonicalNaming,omitempty"`

	// "true", "false" or "runtime"
	IncludeStackTrace string `json:"includeStackTrace,omitempty"`

	SerializeException bool `json:"serializeException,omitempty"`

	// Epoch seconds. The agent answers 304 when nothing changed since then.
	IfModifiedSince int64 `json:"ifModifiedSince,omitempty"`
}

// RequestOption sets a field of a Request built by NewRequest.
type RequestOption func(*Request)

func WithMBean(name string) RequestOption {
	return func(r *Request) { r.MBean = name }
}

// Adds attribute names. Calling it several times appends.
func WithAttribute(names ...string) RequestOption {
	return func(r *Request) { r.Attribute = append(r.Attribute, names...) }
}

func WithPath(path string) RequestOption {
	return func(r *Request) { r.Path = path }
}

// Sets the value of a write. A nil value counts as absent since it is
// omitted from the wire form, so writing JSON null is not supported.
func WithValue(value interface{}) RequestOption {
	return func(r *Request) { r.Value = value }
}

// Sets the JMX operation name and its arguments for exec.
func WithOperation(name string, args ...interface{}) RequestOption {
	return func(r *Request) {
		r.OperationName = name
		if len(args) > 0 {
			r.Arguments = args
		}
	}
}

func WithTarget(target ProxyTarget) RequestOption {
	return func(r *Request) { r.Target = &target }
}

func WithConfig(cfg ProcessingConfig) RequestOption {
	return func(r *Request) { r.Config = &cfg }
}

// Returns new validated Request of the given operation.
func NewRequest(op Operation, opts ...RequestOption) (Request, error) {
	r := Request{Type: op}
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}
	return r, nil
}

// Validate checks that the fields present on r match what its operation
// accepts. It returns a *ValidationError naming the first offending field.
func (r Request) Validate() error {
	if r.Type == "" {
		return newValidationError("", fieldType, "is required")
	}
	if !r.Type.Valid() {
		return newValidationError("", fieldType, "has unknown value "+string(r.Type))
	}
	rules := fieldRules[r.Type]
	checks := []struct {
		field   string
		present bool
		rule    rule
	}{
		{fieldMBean, r.MBean != "", rules.mbean},
		{fieldAttribute, len(r.Attribute) > 0, rules.attribute},
		{fieldPath, r.Path != "", rules.path},
		{fieldValue, r.Value != nil, rules.value},
		{fieldOperation, r.OperationName != "", rules.operation},
		{fieldArguments, len(r.Arguments) > 0, rules.arguments},
	}
	for _, c := range checks {
		switch {
		case c.rule == required && !c.present:
			return newValidationError(r.Type, c.field, "is required")
		case c.rule == forbidden && c.present:
			return newValidationError(r.Type, c.field, "is not allowed")
		}
	}
	if r.Type == Write && len(r.Attribute) > 1 {
		return newValidationError(r.Type, fieldAttribute, "must name exactly one attribute")
	}
	if r.Target != nil && r.Target.URL == "" {
		return newValidationError(r.Type, "target.url", "is required")
	}
	return nil
}

// Equal reports whether both requests carry the same fields. Values are
// compared by their JSON form so 5 and json.Number("5") are equal.
func (r Request) Equal(other Request) bool {
	if r.Type != other.Type || r.MBean != other.MBean || r.Path != other.Path ||
		r.OperationName != other.OperationName {
		return false
	}
	if len(r.Attribute) != len(other.Attribute) {
		return false
	}
	for i := range r.Attribute {
		if r.Attribute[i] != other.Attribute[i] {
			return false
		}
	}
	return jsonEqual(r.Value, other.Value) &&
		jsonEqual(r.Arguments, other.Arguments) &&
		jsonEqual(r.Target, other.Target) &&
		jsonEqual(r.Config, other.Config)
}

func jsonEqual(a, b interface{}) bool {
	x, errA := json.Marshal(a)
	y, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(x, y)
}
