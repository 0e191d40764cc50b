//go:build !cgo || nolibraw

package libraw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vearutop/rawdec/engine"
)

func TestStub(t *testing.T) {
	e := New()

	c, st := e.NewContext()
	assert.Nil(t, c)
	assert.Equal(t, engine.NotImplemented, st)
	assert.Contains(t, e.StrError(st), "not compiled in")
	assert.False(t, Available)
}
