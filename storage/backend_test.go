package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNutsBackendRoundTrip(t *testing.T) {
	backend, err := NewNutsBackend(t.TempDir())
	assert.Nil(t, err)
	defer backend.Close()

	_, found, err := backend.Get("scope", "id")
	assert.Nil(t, err)
	assert.False(t, found)

	assert.Nil(t, backend.Put("scope", "id", []byte("payload")))
	payload, found, err := backend.Get("scope", "id")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), payload)

	assert.Nil(t, backend.Delete("scope", "id"))
	_, found, err = backend.Get("scope", "id")
	assert.Nil(t, err)
	assert.False(t, found)
}

func TestNutsBackendDropScope(t *testing.T) {
	backend, err := NewNutsBackend(t.TempDir())
	assert.Nil(t, err)
	defer backend.Close()

	assert.Nil(t, backend.Put("scope", "a", []byte("1")))
	assert.Nil(t, backend.Put("scope", "b", []byte("2")))
	assert.Nil(t, backend.Put("other", "a", []byte("3")))

	assert.Nil(t, backend.DropScope("scope"))
	_, found, _ := backend.Get("scope", "a")
	assert.False(t, found)
	_, found, _ = backend.Get("other", "a")
	assert.True(t, found)
}

func TestNutsBackendReopen(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewNutsBackend(dir)
	assert.Nil(t, err)
	assert.Nil(t, backend.Put("scope", "id", []byte("payload")))
	assert.Nil(t, backend.Close())

	reopened, err := NewNutsBackend(dir)
	assert.Nil(t, err)
	defer reopened.Close()
	payload, found, err := reopened.Get("scope", "id")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), payload)
}
