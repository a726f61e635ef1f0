package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSimpleName(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"java.lang.IllegalArgumentException", "IllegalArgumentException"},
		{"javax.management.InstanceNotFoundException", "InstanceNotFoundException"},
		{"IllegalStateException", "IllegalStateException"},
		{"  java.lang.Error ", "Error"},
		{"", DefaultName},
		{"java.lang.", DefaultName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, SimpleName(tt.in), tt.in)
	}
}

func TestExceptionIdentity(t *testing.T) {
	reg := NewRegistry()
	a := reg.Exception("java.lang.IllegalArgumentException")
	b := reg.Exception("java.lang.IllegalArgumentException")
	c := reg.Exception("javax.management.InstanceNotFoundException")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "IllegalArgumentException", a.Name)
	assert.Equal(t, "java.lang.IllegalArgumentException", a.FullName)
	assert.Equal(t, "IllegalArgumentException", a.Error())

	// keyed by simple name, the first full name wins
	d := reg.Exception("com.example.IllegalArgumentException")
	assert.Same(t, a, d)

	found, ok := reg.Lookup("IllegalArgumentException")
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = reg.Lookup("java.lang.NullPointerException")
	assert.False(t, ok)

	assert.Equal(t, []string{"IllegalArgumentException", "InstanceNotFoundException"}, reg.Known())
}

func TestExceptionDefault(t *testing.T) {
	reg := NewRegistry()
	class := reg.Exception("")
	assert.Equal(t, DefaultName, class.Name)
	assert.Equal(t, DefaultName, class.FullName)
	assert.Same(t, class, reg.Exception("java.lang.Throwable"))
}

func TestExceptionIsErrorTarget(t *testing.T) {
	class := Exception("java.lang.UnsupportedOperationException")
	wrapped := fmt.Errorf("call failed: %w", class)
	assert.True(t, errors.Is(wrapped, Exception("java.lang.UnsupportedOperationException")))
	assert.Contains(t, Known(), "UnsupportedOperationException")

	found, ok := Lookup("UnsupportedOperationException")
	require.True(t, ok)
	assert.Same(t, class, found)
}

func TestExceptionConcurrent(t *testing.T) {
	reg := NewRegistry()
	names := []string{
		"java.lang.IllegalArgumentException",
		"java.lang.IllegalStateException",
		"javax.management.InstanceNotFoundException",
		"javax.management.AttributeNotFoundException",
	}

	var mu sync.Mutex
	seen := map[string]*ExceptionClass{}
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		name := names[i%len(names)]
		g.Go(func() error {
			class := reg.Exception(name)
			mu.Lock()
			defer mu.Unlock()
			if prev, ok := seen[class.Name]; ok && prev != class {
				return fmt.Errorf("two classes for %s", class.Name)
			}
			seen[class.Name] = class
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, len(names))
	assert.Len(t, reg.Known(), len(names))
}
