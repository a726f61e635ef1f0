package protocol

import "fmt"

// Operation is one of the Jolokia request kinds.
//
// See https://jolokia.org/reference/html/protocol.html#jolokia-operations
type Operation string

const (
	Read    Operation = "read"
	Write   Operation = "write"
	Exec    Operation = "exec"
	Search  Operation = "search"
	List    Operation = "list"
	Version Operation = "version"
)

// Operations lists every operation in protocol order.
var Operations = []Operation{Read, Write, Exec, Search, List, Version}

// Returns true if o is one of the known operations.
func (o Operation) Valid() bool {
	switch o {
	case Read, Write, Exec, Search, List, Version:
		return true
	}
	return false
}

func (o Operation) String() string {
	return string(o)
}

// Converts wire name to Operation. Returns an error for unknown names.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operation %q", s)
	}
	return op, nil
}

// field names as they appear on the wire, used in validation messages
const (
	fieldType      = "type"
	fieldMBean     = "mbean"
	fieldAttribute = "attribute"
	fieldPath      = "path"
	fieldValue     = "value"
	fieldOperation = "operation"
	fieldArguments = "arguments"
)

// presence rule of a single field for an operation
type rule int

const (
	forbidden rule = iota
	optional
	required
)

// fields holds the presence rule of every operation-dependent field.
// target and config are accepted by every operation.
type fields struct {
	mbean, attribute, path, value, operation, arguments rule
}

var fieldRules = map[Operation]fields{
	Read:    {mbean: required, attribute: optional, path: optional},
	Write:   {mbean: required, attribute: required, path: optional, value: required},
	Exec:    {mbean: required, operation: required, arguments: optional},
	Search:  {mbean: required},
	List:    {path: optional},
	Version: {},
}
