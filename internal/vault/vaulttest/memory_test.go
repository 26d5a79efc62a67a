package vaulttest

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Put(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put(context.Background(), "a", strings.NewReader("hello"), "text/plain"))

	objs := m.Objects()
	assert.Equal(t, Object{Body: []byte("hello"), ContentType: "text/plain"}, objs["a"])
}
