package registry

import (
	"strings"
	"sync"

	"github.com/kroksys/pool"
)

// DefaultName is used when the agent does not report an error type.
const DefaultName = "Throwable"

// ExceptionClass stands for a remote Java exception type. There is a single
// *ExceptionClass per simple name within a Registry, so classes can be
// compared by identity and used as errors.Is targets.
type ExceptionClass struct {
	// Simple name, e.g. "IllegalArgumentException".
	Name string

	// Fully qualified name seen first, e.g. "java.lang.IllegalArgumentException".
	FullName string
}

func (c *ExceptionClass) Error() string {
	return c.Name
}

// Registry maps remote error type names to exception classes. Classes are
// created on first use and kept for the lifetime of the registry.
type Registry struct {
	classes *pool.PoolStr[*ExceptionClass]
	names   []string
	lock    sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		classes: pool.NewPoolStr[*ExceptionClass](),
	}
}

// Returns the class for errorType, creating it when seen for the first time.
func (reg *Registry) Exception(errorType string) *ExceptionClass {
	name := SimpleName(errorType)
	if class, ok := reg.classes.GetOk(name); ok {
		return class
	}
	reg.lock.Lock()
	defer reg.lock.Unlock()
	// another caller may have created it while we waited for the lock
	if class, ok := reg.classes.GetOk(name); ok {
		return class
	}
	fullName := strings.TrimSpace(errorType)
	if fullName == "" {
		fullName = DefaultName
	}
	class := &ExceptionClass{Name: name, FullName: fullName}
	reg.classes.Put(name, class)
	reg.names = append(reg.names, name)
	return class
}

// Returns the class registered under the simple name of errorType, if any.
func (reg *Registry) Lookup(errorType string) (*ExceptionClass, bool) {
	return reg.classes.GetOk(SimpleName(errorType))
}

// Returns simple names of all classes in creation order.
func (reg *Registry) Known() []string {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	names := make([]string, len(reg.names))
	copy(names, reg.names)
	return names
}

// SimpleName returns the last dotted component of a Java type name,
// "java.lang.IllegalArgumentException" becomes "IllegalArgumentException".
func SimpleName(errorType string) string {
	errorType = strings.TrimSpace(errorType)
	if errorType == "" {
		return DefaultName
	}
	parts := strings.Split(errorType, ".")
	name := parts[len(parts)-1]
	if name == "" {
		return DefaultName
	}
	return name
}

var defaultRegistry = NewRegistry()

// Exception returns the process-wide class for errorType.
func Exception(errorType string) *ExceptionClass {
	return defaultRegistry.Exception(errorType)
}

// Lookup finds a process-wide class without creating it.
func Lookup(errorType string) (*ExceptionClass, bool) {
	return defaultRegistry.Lookup(errorType)
}

// Known lists the simple names of all process-wide classes.
func Known() []string {
	return defaultRegistry.Known()
}
