package container

import (
	"github.com/km-arc/go-autowire/framework/errors"
)

// Array is a container over plain values.
type Array map[string]any

func (a Array) Get(id string) (any, error) {
	v, ok := a[id]
	if !ok {
		return nil, errors.NotFound(id)
	}
	return v, nil
}

func (a Array) Has(id string) bool {
	_, ok := a[id]
	return ok
}

// Null never contains anything.
type Null struct{}

func (Null) Get(id string) (any, error) { return nil, errors.NotFound(id) }

func (Null) Has(string) bool { return false }
