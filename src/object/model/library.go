package model

import (
	"fmt"

	"github.com/WowVeryLogin/vulkan_scene/src/logger"
	"github.com/WowVeryLogin/vulkan_scene/src/object"
	"go.uber.org/zap"
)

// Resource is uploaded geometry the library can hand out and destroy.
type Resource interface {
	object.Mesh
	Close()
}

// Shared is a counted reference to a library mesh. Every Acquire must be
// paired with exactly one Release.
type Shared struct {
	Resource
	source string
	lib    *Library
}

func (s *Shared) Release() {
	s.lib.release(s.source)
}

type entry struct {
	shared *Shared
	refs   int
}

// Library uploads each mesh source once and destroys it when the last object
// using it releases its reference.
type Library struct {
	create  func(source string) (Resource, error)
	entries map[string]*entry
}

func NewLibrary(create func(source string) (Resource, error)) *Library {
	return &Library{
		create:  create,
		entries: map[string]*entry{},
	}
}

func (l *Library) Acquire(source string) (*Shared, error) {
	if e, ok := l.entries[source]; ok {
		e.refs++
		return e.shared, nil
	}
	res, err := l.create(source)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", source, err)
	}
	e := &entry{
		shared: &Shared{Resource: res, source: source, lib: l},
		refs:   1,
	}
	l.entries[source] = e
	logger.Debug("mesh loaded", zap.String("source", source))
	return e.shared, nil
}

// Refs reports the live reference count of a source.
func (l *Library) Refs(source string) int {
	if e, ok := l.entries[source]; ok {
		return e.refs
	}
	return 0
}

func (l *Library) Len() int {
	return len(l.entries)
}

func (l *Library) release(source string) {
	e, ok := l.entries[source]
	if !ok {
		logger.Warn("release of unknown mesh", zap.String("source", source))
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	e.shared.Resource.Close()
	delete(l.entries, source)
	logger.Debug("mesh destroyed", zap.String("source", source))
}

// Close destroys everything still held, regardless of outstanding
// references.
func (l *Library) Close() {
	for source, e := range l.entries {
		e.shared.Resource.Close()
		delete(l.entries, source)
	}
}
