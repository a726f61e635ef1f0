package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// BatchResponse is a decoded bulk response: one generic JSON object per
// submitted request, in submission order.
type BatchResponse []map[string]interface{}

// Correlation tells where the Request of a decoded Response came from.
type Correlation int

const (
	// The agent did not echo the request, the submitted one is used.
	CorrelatedByPosition Correlation = iota
	// The agent echo agrees with the submitted request and is used.
	CorrelatedByEcho
	// The agent echo names another operation, the submitted one is used.
	CorrelationConflict
)

// ParseBatchResponse decodes a bulk response body sent for a batch of n
// requests. Anything but a JSON array of n objects is a *ProtocolError.
func ParseBatchResponse(data []byte, n int) (BatchResponse, error) {
	switch GetJsonType(data) {
	case TypeJsonArray:
	case TypeJsonObject:
		// A single object is how the agent reports a failure of the whole bulk request.
		reason := "expected JSON array, got object"
		obj := map[string]interface{}{}
		if err := unmarshal(data, &obj); err == nil {
			if msg, ok := obj["error"].(string); ok && msg != "" {
				reason = fmt.Sprintf("%s: %s", reason, msg)
			}
		}
		return nil, &ProtocolError{Reason: reason, Expected: n, Received: -1}
	default:
		return nil, &ProtocolError{Reason: "body is not a JSON document", Expected: n, Received: -1}
	}

	items := []interface{}{}
	if err := unmarshal(data, &items); err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("invalid JSON array: %s", err), Expected: n, Received: -1}
	}
	if len(items) != n {
		return nil, &ProtocolError{
			Reason:   fmt.Sprintf("got %d results for %d requests", len(items), n),
			Expected: n,
			Received: len(items),
		}
	}
	batch := make(BatchResponse, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, &ProtocolError{
				Reason:   fmt.Sprintf("item %d is not a JSON object", i),
				Expected: n,
				Received: len(items),
			}
		}
		batch[i] = obj
	}
	return batch, nil
}

// DecodeResponse decodes element i of a bulk response and pairs it with
// positional, the request submitted at the same index. The agent's echo of
// the request is preferred when it addresses the same target: same operation,
// attributes, path and JMX operation name, and the same MBean up to the
// order of its key properties.
func DecodeResponse(elem map[string]interface{}, positional Request, i int) (Response, Correlation, error) {
	if err := checkShape(elem); err != nil {
		err.Op = positional.Type
		err.Index = i
		return Response{}, CorrelatedByPosition, err
	}

	fields := make(map[string]interface{}, len(elem))
	for k, v := range elem {
		if k != "request" {
			fields[k] = v
		}
	}
	resp, err := fromMap[Response](fields)
	if err != nil {
		verr := newValidationError(positional.Type, "response", err.Error())
		verr.Index = i
		return Response{}, CorrelatedByPosition, verr
	}

	resp.Request = positional
	corr := CorrelatedByPosition
	if echo, ok := elem["request"].(map[string]interface{}); ok {
		if req, err := DecodeRequest(echo); err != nil || !sameTarget(req, positional) {
			corr = CorrelationConflict
		} else {
			resp.Request = req
			corr = CorrelatedByEcho
		}
	}
	return *resp, corr, nil
}

// Agents echo the canonical MBean name, so key properties are compared
// without regard to order. Everything else is echoed as sent.
func sameTarget(echo, positional Request) bool {
	if echo.Type != positional.Type ||
		echo.Path != positional.Path ||
		echo.OperationName != positional.OperationName ||
		len(echo.Attribute) != len(positional.Attribute) {
		return false
	}
	for i := range echo.Attribute {
		if echo.Attribute[i] != positional.Attribute[i] {
			return false
		}
	}
	return canonicalMBean(echo.MBean) == canonicalMBean(positional.MBean)
}

// Returns domain:k1=v1,k2=v2 with the key properties sorted.
func canonicalMBean(name string) string {
	domain, props, ok := strings.Cut(name, ":")
	if !ok {
		return name
	}
	keys := strings.Split(props, ",")
	sort.Strings(keys)
	return domain + ":" + strings.Join(keys, ",")
}

type statusOnly struct {
	Status int `json:"status"`
}

// Checks that the element carries the members its status requires.
func checkShape(elem map[string]interface{}) *ValidationError {
	raw, ok := elem["status"]
	if !ok {
		return newValidationError("", "status", "is required")
	}
	status, err := fromMap[statusOnly](map[string]interface{}{"status": raw})
	if err != nil {
		return newValidationError("", "status", "must be an integer")
	}
	switch {
	case status.Status == StatusOK:
		if _, ok := elem["value"]; !ok {
			return newValidationError("", "value", "is required on success")
		}
	case status.Status >= 400:
		if msg, ok := elem["error"].(string); !ok || msg == "" {
			return newValidationError("", "error", "is required on failure")
		}
	}
	return nil
}
