package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry[int]()

	isNew, err := r.Register("counter", 42)
	assert.NoError(t, err)
	assert.True(t, isNew)

	v, exists := r.Get("counter")
	assert.True(t, exists)
	assert.Equal(t, 42, v)

	// Ghi đè item cũ
	isNew, err = r.Register("counter", 7)
	assert.NoError(t, err)
	assert.False(t, isNew)

	v, _ = r.Get("counter")
	assert.Equal(t, 7, v)
}

func TestRegistry_RegisterEmptyName(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("", "x")
	assert.Error(t, err)
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry[string]()

	created := 0
	v, err := r.GetOrCreate("a", func() (string, error) {
		created++
		return "value", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "value", v)

	// Lần hai trả về item đã có, không gọi creator
	v, err = r.GetOrCreate("a", func() (string, error) {
		created++
		return "other", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, 1, created)
}

func TestRegistry_ClearAll(t *testing.T) {
	r := NewRegistry[int]()
	r.Register("a", 1)
	r.Register("b", 2)

	count, err := r.ClearAll(nil)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	_, exists := r.Get("a")
	assert.False(t, exists)
}
