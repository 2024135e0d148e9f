package reflection

import (
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/km-arc/go-autowire/framework/errors"
)

// Struct tags read from constructor fields.
const (
	TagInject  = "inject"
	TagDefault = "default"
)

// fieldTag is the parsed form of `inject:"name,optional,nullable,type=..."`.
//
// "type=" consumes the rest of the tag so generic hints may contain commas.
type fieldTag struct {
	skip     bool
	name     string
	optional bool
	nullable bool
	hint     string
}

func parseFieldTag(raw string) (fieldTag, error) {
	var ft fieldTag
	if raw == "-" {
		ft.skip = true
		return ft, nil
	}
	if raw == "" {
		return ft, nil
	}

	name, rest, _ := strings.Cut(raw, ",")
	if strings.HasPrefix(raw, "type=") {
		name, rest = "", raw
	}
	ft.name = strings.TrimSpace(name)
	for rest != "" {
		var opt string
		if strings.HasPrefix(strings.TrimSpace(rest), "type=") {
			ft.hint = strings.TrimPrefix(strings.TrimSpace(rest), "type=")
			break
		}
		opt, rest, _ = strings.Cut(rest, ",")
		switch strings.TrimSpace(opt) {
		case "optional":
			ft.optional = true
		case "nullable":
			ft.nullable = true
		case "":
		default:
			return ft, errors.Errorf("unknown inject option %q", opt)
		}
	}
	if ft.hint == "" && strings.Contains(raw, "type=") {
		return ft, errors.Errorf("empty type annotation in %q", raw)
	}
	return ft, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseDefault converts a `default:"..."` literal to a value of the field's
// kind. The result is the field's own type so it assigns without conversion.
func parseDefault(literal string, t reflect.Type) (any, error) {
	if t == durationType {
		d, err := time.ParseDuration(literal)
		if err != nil {
			return nil, errors.Wrapf(err, "parse duration default %q", literal)
		}
		return d, nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(literal)
	case reflect.Bool:
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, errors.Wrapf(err, "parse bool default %q", literal)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(literal, 0, t.Bits())
		if err != nil {
			return nil, errors.Wrapf(err, "parse int default %q", literal)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := strconv.ParseUint(literal, 0, t.Bits())
		if err != nil {
			return nil, errors.Wrapf(err, "parse uint default %q", literal)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(literal, t.Bits())
		if err != nil {
			return nil, errors.Wrapf(err, "parse float default %q", literal)
		}
		v.SetFloat(f)
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		if literal != "nil" && literal != "null" {
			return nil, errors.Errorf("only nil defaults are supported for %s", t)
		}
		return nil, nil
	default:
		return nil, errors.Errorf("unsupported default for %s", t)
	}
	return v.Interface(), nil
}

// parameterName lower-cases the first rune of a field name.
func parameterName(field string) string {
	r, size := utf8.DecodeRuneInString(field)
	if r == utf8.RuneError {
		return field
	}
	return string(unicode.ToLower(r)) + field[size:]
}
