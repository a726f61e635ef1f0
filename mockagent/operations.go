package mockagent

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/kroksys/jolokia/protocol"
)

func (a *Agent) execute(req protocol.Request) (interface{}, error) {
	switch req.Type {
	case protocol.Read:
		return a.read(req)
	case protocol.Write:
		return a.write(req)
	case protocol.Exec:
		return a.exec(req)
	case protocol.Search:
		return a.search(req)
	case protocol.List:
		return a.list(req)
	case protocol.Version:
		return a.versionInfo(), nil
	}
	return nil, &JavaError{
		Type:    "java.lang.IllegalArgumentException",
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("Invalid request type '%s'", req.Type),
	}
}

func (a *Agent) lookup(name string) (*MBean, error) {
	bean, ok := a.mbeans[name]
	if !ok {
		return nil, &JavaError{
			Type:    "javax.management.InstanceNotFoundException",
			Status:  http.StatusNotFound,
			Message: name,
		}
	}
	return bean, nil
}

func attributeNotFound(name string) error {
	return &JavaError{
		Type:    "javax.management.AttributeNotFoundException",
		Status:  http.StatusNotFound,
		Message: "No such attribute: " + name,
	}
}

func (a *Agent) read(req protocol.Request) (interface{}, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	bean, err := a.lookup(req.MBean)
	if err != nil {
		return nil, err
	}
	switch len(req.Attribute) {
	case 0:
		return copyValue(bean.Attributes), nil
	case 1:
		v, ok := bean.Attributes[req.Attribute[0]]
		if !ok {
			return nil, attributeNotFound(req.Attribute[0])
		}
		return copyValue(navigate(v, req.Path)), nil
	}
	values := make(map[string]interface{}, len(req.Attribute))
	for _, name := range req.Attribute {
		v, ok := bean.Attributes[name]
		if !ok {
			return nil, attributeNotFound(name)
		}
		values[name] = copyValue(navigate(v, req.Path))
	}
	return values, nil
}

// Sets the attribute (or the inner path of it) and returns the old value.
func (a *Agent) write(req protocol.Request) (interface{}, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	bean, err := a.lookup(req.MBean)
	if err != nil {
		return nil, err
	}
	name := req.Attribute[0]
	current, ok := bean.Attributes[name]
	if !ok {
		return nil, attributeNotFound(name)
	}
	if req.Path == "" {
		bean.Attributes[name] = req.Value
		return current, nil
	}
	parts := splitPath(req.Path)
	parent, ok := navigate(current, strings.Join(parts[:len(parts)-1], "/")).(map[string]interface{})
	if !ok {
		return nil, &JavaError{
			Type:    "java.lang.IllegalArgumentException",
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Cannot set value for path %s", req.Path),
		}
	}
	key := parts[len(parts)-1]
	old := parent[key]
	parent[key] = req.Value
	return old, nil
}

func (a *Agent) exec(req protocol.Request) (interface{}, error) {
	a.lock.RLock()
	bean, err := a.lookup(req.MBean)
	var op Operation
	if err == nil {
		// the signature part of "name(java.lang.String)" is ignored
		name, _, _ := strings.Cut(req.OperationName, "(")
		op = bean.Operations[name]
	}
	a.lock.RUnlock()
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, &JavaError{
			Type:    "java.lang.IllegalArgumentException",
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("No operation %s found on MBean %s", req.OperationName, req.MBean),
		}
	}
	value, err := op(req.Arguments)
	if err != nil {
		if _, ok := err.(*JavaError); ok {
			return nil, err
		}
		return nil, &JavaError{
			Type:    "javax.management.MBeanException",
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		}
	}
	return value, nil
}

// Returns the names matching an MBean pattern, * and ? are wildcards.
func (a *Agent) search(req protocol.Request) (interface{}, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	found := []interface{}{}
	for _, name := range a.names() {
		ok, err := path.Match(req.MBean, name)
		if err != nil {
			return nil, &JavaError{
				Type:    "javax.management.MalformedObjectNameException",
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			}
		}
		if ok {
			found = append(found, name)
		}
	}
	return found, nil
}

// Builds the domain/properties/info tree and returns the part under the path.
func (a *Agent) list(req protocol.Request) (interface{}, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	tree := map[string]interface{}{}
	for _, name := range a.names() {
		bean := a.mbeans[name]
		domain, props, _ := strings.Cut(name, ":")
		d, ok := tree[domain].(map[string]interface{})
		if !ok {
			d = map[string]interface{}{}
			tree[domain] = d
		}
		attrs := map[string]interface{}{}
		for attr, v := range bean.Attributes {
			attrs[attr] = map[string]interface{}{"type": javaType(v), "rw": true, "desc": attr}
		}
		ops := map[string]interface{}{}
		for op := range bean.Operations {
			ops[op] = map[string]interface{}{"args": []interface{}{}, "ret": "java.lang.Object", "desc": op}
		}
		d[props] = map[string]interface{}{"desc": bean.Description, "attr": attrs, "op": ops}
	}
	return navigate(tree, req.Path), nil
}

func (a *Agent) versionInfo() map[string]interface{} {
	return map[string]interface{}{
		"agent":    AgentVersion,
		"protocol": ProtocolVersion,
		"config": map[string]interface{}{
			"agentType": "servlet",
		},
		"info": map[string]interface{}{
			"product": a.product,
			"vendor":  "kroksys",
			"version": AgentVersion,
		},
	}
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// Walks maps and slices along p. A missing element yields nil.
func navigate(v interface{}, p string) interface{} {
	if strings.Trim(p, "/") == "" {
		return v
	}
	for _, part := range splitPath(p) {
		switch node := v.(type) {
		case map[string]interface{}:
			v = node[part]
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil
			}
			v = node[i]
		default:
			return nil
		}
	}
	return v
}

func copyValue(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(node))
		for k, x := range node {
			m[k] = copyValue(x)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(node))
		for i, x := range node {
			s[i] = copyValue(x)
		}
		return s
	}
	return v
}

func javaType(v interface{}) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case string:
		return "java.lang.String"
	case int, int64:
		return "long"
	case map[string]interface{}:
		return "javax.management.openmbean.CompositeData"
	}
	return "java.lang.Object"
}
