package flow

import (
	"fmt"
	"reflect"
	"strings"
)

// Attributer is implemented by results that expose named attributes
// explicitly instead of through struct fields or map keys.
type Attributer interface {
	Attribute(name string) (any, bool)
}

// Attribute reads one named attribute off v the way a node.field reference
// does.
func Attribute(v any, name string) (any, error) {
	return attribute(v, name)
}

// attribute reads one named attribute off v. Lookup order: Attributer,
// string-keyed map, exported struct field by exact name, then by
// case-insensitive name or json tag.
func attribute(v any, name string) (any, error) {
	if a, ok := v.(Attributer); ok {
		if out, ok := a.Attribute(name); ok {
			return out, nil
		}
		return nil, fmt.Errorf("%T has no attribute %q", v, name)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("result is nil")
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%T is not keyed by string", v)
		}
		mv := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, fmt.Errorf("key %q not present", name)
		}
		return mv.Interface(), nil

	case reflect.Struct:
		t := rv.Type()
		if sf, ok := t.FieldByName(name); ok && sf.IsExported() {
			fv, err := rv.FieldByIndexErr(sf.Index)
			if err != nil {
				return nil, err
			}
			return fv.Interface(), nil
		}
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if strings.EqualFold(sf.Name, name) || jsonName(sf) == name {
				return rv.Field(i).Interface(), nil
			}
		}
		return nil, fmt.Errorf("%s has no field %q", t, name)

	case reflect.Invalid:
		return nil, fmt.Errorf("result is nil")

	default:
		return nil, fmt.Errorf("%T has no attributes", v)
	}
}

func jsonName(sf reflect.StructField) string {
	tag, ok := sf.Tag.Lookup("json")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
