package templating

import (
	"fmt"
	"reflect"

	"github.com/CTAG07/Podium/pkg/catalog"
)

// list returns a slice containing all the arguments passed to it.
func list(args ...any) []any {
	return args
}

// dict builds a map from alternating keys and values, for passing several
// values to a partial.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments (%d)", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is %T, not string", pairs[i], pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// extra returns a catalog field the event schema does not declare, or nil.
func extra(e *catalog.Event, key string) any {
	if e == nil {
		return nil
	}
	return e.Extra[key]
}

// first returns the first element of a slice, or nil if it is empty.
func first(slice any) any {
	if slice == nil {
		return nil
	}
	val := reflect.ValueOf(slice)
	if val.Kind() != reflect.Slice && val.Kind() != reflect.Array {
		// Fail silently, the template renders nothing
		return nil
	}
	if val.Len() == 0 {
		return nil
	}
	return val.Index(0).Interface()
}
