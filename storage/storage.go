package storage

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rillflow/rill/window"
)

// ScopeKey addresses all storages of one keyed window. Key must be
// comparable; the engine only ever passes keys it also uses as map
// keys elsewhere.
type ScopeKey struct {
	Window window.TimeInterval
	Key    any
}

func (s ScopeKey) String() string {
	return fmt.Sprintf("%d.%d.%v", s.Window.Start, s.Window.End, s.Key)
}

type ValueDescriptor[T any] struct {
	ID string
}

type ListDescriptor[T any] struct {
	ID string
}

// Scoped is a handle on one scope's storages. Storages are resolved
// through the free functions Value and List so the descriptor's type
// parameter stays out of the interface.
type Scoped interface {
	load(id string) (any, bool)
	store(id string, s any)
	persist(id string, payload []byte)
	remove(id string)
	fetch(id string) ([]byte, bool)
}

// Value returns the scope's value storage for the descriptor,
// creating it on first access. Repeated calls with the same descriptor
// return the same storage.
func Value[T any](s Scoped, d ValueDescriptor[T]) *ValueStorage[T] {
	if loaded, ok := s.load(d.ID); ok {
		return loaded.(*ValueStorage[T])
	}
	v := &ValueStorage[T]{scoped: s, id: d.ID}
	if payload, ok := s.fetch(d.ID); ok {
		v.value = decode[T](payload)
		v.present = true
	}
	s.store(d.ID, v)
	return v
}

// List returns the scope's list storage for the descriptor, creating
// it on first access.
func List[T any](s Scoped, d ListDescriptor[T]) *ListStorage[T] {
	if loaded, ok := s.load(d.ID); ok {
		return loaded.(*ListStorage[T])
	}
	l := &ListStorage[T]{scoped: s, id: d.ID}
	if payload, ok := s.fetch(d.ID); ok {
		l.items = decode[[]T](payload)
	}
	s.store(d.ID, l)
	return l
}

type ValueStorage[T any] struct {
	scoped  Scoped
	id      string
	value   T
	present bool
}

func (v *ValueStorage[T]) Get() (T, bool) {
	return v.value, v.present
}

func (v *ValueStorage[T]) Set(value T) {
	v.value = value
	v.present = true
	v.scoped.persist(v.id, encode(value))
}

func (v *ValueStorage[T]) Clear() {
	var ni T
	v.value = ni
	v.present = false
	v.scoped.remove(v.id)
}

type ListStorage[T any] struct {
	scoped Scoped
	id     string
	items  []T
}

func (l *ListStorage[T]) Add(item T) {
	l.items = append(l.items, item)
	l.scoped.persist(l.id, encode(l.items))
}

func (l *ListStorage[T]) Get() []T {
	return l.items
}

func (l *ListStorage[T]) Clear() {
	l.items = nil
	l.scoped.remove(l.id)
}

func encode[T any](value T) []byte {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(&value); err != nil {
		panic(errors.WithMessage(err, "failed to encode storage payload to gob bytes"))
	}
	return buffer.Bytes()
}

func decode[T any](payload []byte) T {
	var value T
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&value); err != nil {
		panic(errors.WithMessage(err, "failed to decode gob bytes"))
	}
	return value
}
