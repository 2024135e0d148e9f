package sample

import "fmt"

type Count int

type Box[T any] struct{ V T }

type Alias = fmt.Stringer

func kind(v any) string {
	switch v.(type) {
	case int:
		return "int"
	}
	return ""
}

type Leading interface {
	Lead() string
}
