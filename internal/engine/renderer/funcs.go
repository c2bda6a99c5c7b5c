package renderer

import (
	"fmt"
	"reflect"
	"strings"
	"text/template"
)

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"bool":    toBool,
		"join":    join,
		"default": defaultValue,
	}
}

// toBool treats yes, true and 1 as true, in any case.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case nil:
		return false
	default:
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(b))) {
		case "yes", "true", "1":
			return true
		}
		return false
	}
}

// join concatenates the elements of a list. It takes the separator first so
// it reads naturally in a pipeline: {{ .groups.db | join "," }}.
func join(sep string, list any) string {
	switch l := list.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(l, sep)
	case string:
		return l
	}
	v := reflect.ValueOf(list)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Sprint(list)
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(v.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// defaultValue returns v unless it is empty, in which case def is used:
// {{ .port | default "3306" }}.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return def
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return def
		}
	}
	return v
}
