// Package mockagent is an in-process Jolokia agent serving a fixed set of
// MBeans over the bulk POST protocol. It is meant for tests and demos.
package mockagent

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kroksys/jolokia/protocol"
)

const (
	// Path the agent is served on.
	Path = "/jolokia"

	AgentVersion    = "1.7.2"
	ProtocolVersion = "7.2"
)

// Operation is a JMX operation exposed by an MBean. Returning a *JavaError
// controls the error type reported to the client.
type Operation func(args []interface{}) (interface{}, error)

// MBean is a registered managed bean. Attribute values may be nested maps
// and slices, inner paths navigate through them.
type MBean struct {
	Description string
	Attributes  map[string]interface{}
	Operations  map[string]Operation
}

// JavaError is reported to the client as a failed item with the given
// error type.
type JavaError struct {
	Type    string
	Status  int
	Message string
}

func (e *JavaError) Error() string {
	return e.Type + " : " + e.Message
}

// ResponseFilter may rewrite the bulk response before it is sent.
type ResponseFilter func(items []interface{}) []interface{}

// Agent is a fake Jolokia agent.
type Agent struct {
	mbeans   map[string]*MBean
	lock     sync.RWMutex
	accounts gin.Accounts
	filter   ResponseFilter
	now      func() time.Time
	product  string
}

// Option configures an Agent.
type Option func(*Agent)

// Requires HTTP Basic authentication with the given credentials.
func WithBasicAuth(username, password string) Option {
	return func(a *Agent) {
		if a.accounts == nil {
			a.accounts = gin.Accounts{}
		}
		a.accounts[username] = password
	}
}

func WithResponseFilter(filter ResponseFilter) Option {
	return func(a *Agent) { a.filter = filter }
}

// Fixes the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// Creates new agent with the standard java.lang:type=Memory and
// java.lang:type=Runtime MBeans registered.
func New(opts ...Option) *Agent {
	a := &Agent{
		mbeans:  make(map[string]*MBean),
		now:     time.Now,
		product: "mockagent",
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Register("java.lang:type=Memory", MBean{
		Description: "Information on the memory management system",
		Attributes: map[string]interface{}{
			"HeapMemoryUsage": map[string]interface{}{
				"init":      int64(262144000),
				"committed": int64(251658240),
				"max":       int64(4164943872),
				"used":      int64(194103808),
			},
			"Verbose":                        false,
			"ObjectPendingFinalizationCount": 0,
		},
		Operations: map[string]Operation{
			"gc": func(args []interface{}) (interface{}, error) { return nil, nil },
		},
	})
	a.Register("java.lang:type=Runtime", MBean{
		Description: "Runtime system of the Java virtual machine",
		Attributes: map[string]interface{}{
			"VmName":   "OpenJDK 64-Bit Server VM",
			"VmVendor": "Eclipse Adoptium",
			"Uptime":   int64(3600000),
		},
	})
	return a
}

// Register adds or replaces an MBean under name.
func (a *Agent) Register(name string, mbean MBean) {
	if mbean.Attributes == nil {
		mbean.Attributes = map[string]interface{}{}
	}
	if mbean.Operations == nil {
		mbean.Operations = map[string]Operation{}
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	a.mbeans[name] = &mbean
}

// Returns the current value of an attribute.
func (a *Agent) Attribute(mbean, attribute string) (interface{}, bool) {
	a.lock.RLock()
	defer a.lock.RUnlock()
	bean, ok := a.mbeans[mbean]
	if !ok {
		return nil, false
	}
	v, ok := bean.Attributes[attribute]
	return v, ok
}

// Handler returns a gin engine serving the agent at Path.
func (a *Agent) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	group := r.Group("/")
	if len(a.accounts) > 0 {
		group.Use(gin.BasicAuth(a.accounts))
	}
	group.POST(Path, a.handlePost)
	return r
}

func (a *Agent) handlePost(g *gin.Context) {
	data, err := g.GetRawData()
	if err != nil {
		g.JSON(http.StatusBadRequest, a.globalError(err.Error()))
		return
	}

	switch protocol.GetJsonType(data) {
	case protocol.TypeJsonObject:
		obj := map[string]interface{}{}
		if err := unmarshal(data, &obj); err != nil {
			g.JSON(http.StatusOK, a.globalError(err.Error()))
			return
		}
		g.JSON(http.StatusOK, a.handle(obj))
	case protocol.TypeJsonArray:
		items := []map[string]interface{}{}
		if err := unmarshal(data, &items); err != nil {
			g.JSON(http.StatusOK, a.globalError(err.Error()))
			return
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = a.handle(item)
		}
		if a.filter != nil {
			out = a.filter(out)
		}
		g.JSON(http.StatusOK, out)
	default:
		g.JSON(http.StatusOK, a.globalError("Invalid JSON request"))
	}
}

// Processes a single request object and builds its response element.
func (a *Agent) handle(obj map[string]interface{}) map[string]interface{} {
	elem := map[string]interface{}{
		"request":   obj,
		"timestamp": a.now().Unix(),
	}
	req, err := protocol.DecodeRequest(obj)
	if err == nil {
		err = req.Validate()
	}
	var value interface{}
	if err == nil {
		value, err = a.execute(req)
	}
	if err != nil {
		jerr, ok := err.(*JavaError)
		if !ok {
			jerr = &JavaError{Type: "java.lang.IllegalArgumentException", Status: http.StatusBadRequest, Message: err.Error()}
		}
		elem["status"] = jerr.Status
		elem["error_type"] = jerr.Type
		elem["error"] = jerr.Error()
		elem["stacktrace"] = jerr.Error() + "\n\tat org.jolokia.backend.MBeanServerHandler.dispatchRequest(MBeanServerHandler.java:161)\n"
		return elem
	}
	elem["status"] = http.StatusOK
	elem["value"] = value
	return elem
}

// Response for a request that could not be parsed at all.
func (a *Agent) globalError(msg string) map[string]interface{} {
	return map[string]interface{}{
		"status":     http.StatusBadRequest,
		"error_type": "java.lang.IllegalArgumentException",
		"error":      "java.lang.IllegalArgumentException : " + msg,
		"timestamp":  a.now().Unix(),
	}
}

func (a *Agent) names() []string {
	names := make([]string, 0, len(a.mbeans))
	for name := range a.mbeans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
