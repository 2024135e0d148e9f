// Package nested is one level down.
package nested

type Deep struct {
	Name string
}
