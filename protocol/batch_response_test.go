package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJsonType(t *testing.T) {
	assert.Equal(t, TypeJsonArray, GetJsonType([]byte(" \n[1]")))
	assert.Equal(t, TypeJsonObject, GetJsonType([]byte("{}")))
	assert.Equal(t, TypeJsonInvalid, GetJsonType([]byte("<html>")))
	assert.Equal(t, TypeJsonInvalid, GetJsonType(nil))
}

func TestParseBatchResponseMalformed(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		n        int
		received int
		reason   string
	}{
		{"not json", `<html>500</html>`, 1, -1, "not a JSON document"},
		{"object", `{"status":400,"error":"java.lang.IllegalArgumentException : Invalid JSON request"}`, 1, -1, "Invalid JSON request"},
		{"broken array", `[{"status":200`, 1, -1, "invalid JSON array"},
		{"too few", `[{"status":200,"value":1}]`, 2, 1, "got 1 results for 2 requests"},
		{"too many", `[{"status":200,"value":1},{"status":200,"value":2}]`, 1, 2, "got 2 results for 1 requests"},
		{"not an object", `[{"status":200,"value":1}, 5]`, 2, 2, "item 1 is not a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ParseBatchResponse([]byte(tt.body), tt.n)
			assert.Nil(t, batch)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
			var perr *ProtocolError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.n, perr.Expected)
			assert.Equal(t, tt.received, perr.Received)
			assert.Contains(t, perr.Error(), tt.reason)
		})
	}
}

func TestParseBatchResponseKeepsNumbers(t *testing.T) {
	batch, err := ParseBatchResponse([]byte(`[{"status":200,"value":9223372036854775807,"timestamp":1700000000}]`), 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, json.Number("9223372036854775807"), batch[0]["value"])
}

func TestDecodeResponseSuccess(t *testing.T) {
	positional := Request{Type: Read, MBean: "java.lang:type=Memory", Attribute: Attributes{"HeapMemoryUsage"}, Path: "used"}
	batch, err := ParseBatchResponse([]byte(`[{
		"request": {"type":"read","mbean":"java.lang:type=Memory","attribute":"HeapMemoryUsage","path":"used"},
		"value": 194103808,
		"status": 200,
		"timestamp": 1700000000
	}]`), 1)
	require.NoError(t, err)

	resp, corr, err := DecodeResponse(batch[0], positional, 0)
	require.NoError(t, err)
	assert.Equal(t, CorrelatedByEcho, corr)
	assert.Equal(t, json.Number("194103808"), resp.Value)
	assert.Equal(t, 200, resp.Status)
	assert.True(t, resp.OK())
	assert.Equal(t, int64(1700000000), resp.Timestamp)
	assert.Equal(t, int64(1700000000), resp.Time().Unix())
	assert.True(t, positional.Equal(resp.Request))
	assert.Empty(t, resp.Error)
}

func TestDecodeResponseMissingPathIsNull(t *testing.T) {
	positional := Request{Type: Read, MBean: "java.lang:type=Memory", Attribute: Attributes{"HeapMemoryUsage"}, Path: "nope"}
	batch, err := ParseBatchResponse([]byte(`[{"value":null,"status":200,"timestamp":1700000000}]`), 1)
	require.NoError(t, err)

	resp, corr, err := DecodeResponse(batch[0], positional, 0)
	require.NoError(t, err)
	assert.Equal(t, CorrelatedByPosition, corr)
	assert.Nil(t, resp.Value)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, positional, resp.Request)
}

func TestDecodeResponseFailure(t *testing.T) {
	positional := Request{Type: Read, MBean: "java.lang:type=Missing"}
	batch, err := ParseBatchResponse([]byte(`[{
		"request": {"type":"read","mbean":"java.lang:type=Missing"},
		"status": 404,
		"timestamp": 1700000000,
		"error_type": "javax.management.InstanceNotFoundException",
		"error": "javax.management.InstanceNotFoundException : java.lang:type=Missing",
		"stacktrace": "javax.management.InstanceNotFoundException: java.lang:type=Missing\n\tat Foo.bar(Foo.java:1)\n"
	}]`), 1)
	require.NoError(t, err)

	resp, _, err := DecodeResponse(batch[0], positional, 0)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, 404, resp.Status)
	assert.Equal(t, "javax.management.InstanceNotFoundException", resp.ErrorType)
	assert.Contains(t, resp.Stacktrace, "Foo.bar")
	assert.Nil(t, resp.Value)
}

func TestDecodeResponseInvalidShape(t *testing.T) {
	positional := Request{Type: Version}
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing status", `[{"value":1}]`, "status"},
		{"string status", `[{"status":"ok","value":1}]`, "status"},
		{"success without value", `[{"status":200}]`, "value"},
		{"failure without error", `[{"status":500,"error_type":"java.lang.Error"}]`, "error"},
		{"failure with empty error", `[{"status":500,"error":""}]`, "error"},
		{"bad timestamp", `[{"status":200,"value":1,"timestamp":"yesterday"}]`, "response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ParseBatchResponse([]byte(tt.body), 1)
			require.NoError(t, err)
			_, _, err = DecodeResponse(batch[0], positional, 3)
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 3, verr.Index)
			assert.Equal(t, Version, verr.Op)
		})
	}
}

func TestDecodeResponseNotModified(t *testing.T) {
	batch, err := ParseBatchResponse([]byte(`[{"status":304,"timestamp":1700000000}]`), 1)
	require.NoError(t, err)
	resp, _, err := DecodeResponse(batch[0], Request{Type: List}, 0)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Nil(t, resp.Value)
}

func TestDecodeResponseEchoConflict(t *testing.T) {
	positional := Request{Type: Read, MBean: "java.lang:type=Memory"}
	batch, err := ParseBatchResponse([]byte(`[
		{"request":{"type":"version"},"value":{},"status":200},
		{"request":"garbage","value":1,"status":200}
	]`), 2)
	require.NoError(t, err)

	resp, corr, err := DecodeResponse(batch[0], positional, 0)
	require.NoError(t, err)
	assert.Equal(t, CorrelationConflict, corr)
	assert.Equal(t, positional, resp.Request)

	resp, corr, err = DecodeResponse(batch[1], positional, 1)
	require.NoError(t, err)
	assert.Equal(t, CorrelatedByPosition, corr)
	assert.Equal(t, positional, resp.Request)
}

func TestDecodeResponseSwappedReadEchoes(t *testing.T) {
	heap := Request{Type: Read, MBean: "java.lang:type=Memory", Attribute: Attributes{"HeapMemoryUsage"}, Path: "used"}
	uptime := Request{Type: Read, MBean: "java.lang:type=Runtime", Attribute: Attributes{"Uptime"}}
	batch, err := ParseBatchResponse([]byte(`[
		{"request":{"type":"read","mbean":"java.lang:type=Runtime","attribute":"Uptime"},"value":42,"status":200},
		{"request":{"type":"read","mbean":"java.lang:type=Memory","attribute":"HeapMemoryUsage","path":"used"},"value":1,"status":200}
	]`), 2)
	require.NoError(t, err)

	for i, positional := range []Request{heap, uptime} {
		resp, corr, err := DecodeResponse(batch[i], positional, i)
		require.NoError(t, err)
		assert.Equal(t, CorrelationConflict, corr, i)
		assert.Equal(t, positional, resp.Request, i)
	}
}

func TestDecodeResponseEchoTargetMismatch(t *testing.T) {
	positional := Request{Type: Exec, MBean: "java.lang:type=Memory", OperationName: "gc"}
	for name, echo := range map[string]string{
		"operation": `{"type":"exec","mbean":"java.lang:type=Memory","operation":"reset"}`,
		"mbean":     `{"type":"exec","mbean":"java.lang:type=Threading","operation":"gc"}`,
		"path":      `{"type":"exec","mbean":"java.lang:type=Memory","operation":"gc","path":"x"}`,
	} {
		batch, err := ParseBatchResponse([]byte(`[{"request":`+echo+`,"value":null,"status":200}]`), 1)
		require.NoError(t, err, name)
		_, corr, err := DecodeResponse(batch[0], positional, 0)
		require.NoError(t, err, name)
		assert.Equal(t, CorrelationConflict, corr, name)
	}
}

func TestDecodeResponseCanonicalEcho(t *testing.T) {
	// agents echo the canonical form of MBean names
	positional := Request{Type: Read, MBean: "java.lang:type=GarbageCollector,name=G1 Young Generation"}
	batch, err := ParseBatchResponse([]byte(`[{
		"request":{"type":"read","mbean":"java.lang:name=G1 Young Generation,type=GarbageCollector"},
		"value":{},"status":200}]`), 1)
	require.NoError(t, err)

	resp, corr, err := DecodeResponse(batch[0], positional, 0)
	require.NoError(t, err)
	assert.Equal(t, CorrelatedByEcho, corr)
	assert.Equal(t, "java.lang:name=G1 Young Generation,type=GarbageCollector", resp.Request.MBean)
}

func TestDecodeResponseHistory(t *testing.T) {
	batch, err := ParseBatchResponse([]byte(`[{
		"value": 3, "status": 200, "timestamp": 1700000100,
		"history": [{"value": 1, "timestamp": 1700000000}, {"value": 2, "timestamp": 1700000050}]
	}]`), 1)
	require.NoError(t, err)
	resp, _, err := DecodeResponse(batch[0], Request{Type: Read, MBean: "a:b=c", Attribute: Attributes{"X"}}, 0)
	require.NoError(t, err)
	require.Len(t, resp.History, 2)
	assert.Equal(t, json.Number("1"), resp.History[0].Value)
	assert.Equal(t, int64(1700000050), resp.History[1].Time().Unix())
}

func TestDecodeVersion(t *testing.T) {
	value := map[string]interface{}{
		"agent":    "1.7.2",
		"protocol": "7.2",
		"config":   map[string]interface{}{"agentType": "servlet"},
		"info": map[string]interface{}{
			"product":   "tomcat",
			"vendor":    "Apache",
			"version":   "9.0.80",
			"extraInfo": map[string]interface{}{"amxBooted": false},
		},
	}
	info, err := DecodeVersion(value)
	require.NoError(t, err)
	assert.Equal(t, "1.7.2", info.Agent)
	assert.Equal(t, "7.2", info.Protocol)
	assert.Equal(t, "tomcat", info.Info.Product)
	assert.Equal(t, false, info.Info.ExtraInfo["amxBooted"])
	assert.Equal(t, "servlet", info.Config["agentType"])
}
