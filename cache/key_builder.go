package cache

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// KeySeparator separates the resource kind from the encoded parameters.
const KeySeparator = "::"

// KeyBuilder maps a logical request (resource kind + parameters) to a
// canonical cache key.
type KeyBuilder interface {
	BuildKey(kind string, params map[string]any) (string, error)
}

// defaultKeyBuilder implements KeyBuilder using reflection to accept any
// primitive (or pointer to primitive) parameter value.
type defaultKeyBuilder struct{}

// NewDefaultKeyBuilder creates a new instance of the default key builder.
func NewDefaultKeyBuilder() KeyBuilder {
	return &defaultKeyBuilder{}
}

var defaultBuilder = NewDefaultKeyBuilder()

// BuildKey builds a key with the default key builder.
func BuildKey(kind string, params map[string]any) (string, error) {
	return defaultBuilder.BuildKey(kind, params)
}

// MustBuildKey is like BuildKey but panics on invalid input. Use it only with
// parameters known at compile time.
func MustBuildKey(kind string, params map[string]any) string {
	key, err := BuildKey(kind, params)
	if err != nil {
		panic(err)
	}
	return key
}

// BuildKey produces `kind` or `kind::a=1&b=x`, params sorted by name.
// Nil values are omitted so an unset filter and a missing filter share a key.
func (b *defaultKeyBuilder) BuildKey(kind string, params map[string]any) (string, error) {
	if kind == "" || strings.Contains(kind, KeySeparator) {
		return "", &InvalidKeyParamError{Kind: kind, Param: "", Type: "kind"}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		encoded, omit, err := b.encodeValue(params[name])
		if err != nil {
			return "", &InvalidKeyParamError{Kind: kind, Param: name, Type: err.Error()}
		}
		if omit {
			continue
		}
		pairs = append(pairs, url.QueryEscape(name)+"="+url.QueryEscape(encoded))
	}

	if len(pairs) == 0 {
		return kind, nil
	}
	return kind + KeySeparator + strings.Join(pairs, "&"), nil
}

// encodeValue renders a single parameter. The error carries the offending
// type name only; BuildKey wraps it with the kind and parameter name.
func (b *defaultKeyBuilder) encodeValue(v any) (string, bool, error) {
	if v == nil {
		return "", true, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "", true, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), false, nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), false, nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), false, nil
	case reflect.String:
		return rv.String(), false, nil
	default:
		return "", false, fmt.Errorf("%s", rv.Type())
	}
}

// KindOf returns the kind segment of a key built by BuildKey.
func KindOf(key string) string {
	if i := strings.Index(key, KeySeparator); i >= 0 {
		return key[:i]
	}
	return key
}

// ParseKey splits a key built by BuildKey back into its kind and decoded
// parameter values.
func ParseKey(key string) (string, map[string]string, error) {
	kind, encoded, found := strings.Cut(key, KeySeparator)
	params := map[string]string{}
	if !found || encoded == "" {
		return kind, params, nil
	}

	values, err := url.ParseQuery(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("parse key %q: %w", key, err)
	}
	for name, vals := range values {
		if len(vals) > 0 {
			params[name] = vals[0]
		}
	}
	return kind, params, nil
}

// HasKindPrefix reports whether key belongs to kind. Matching is segment
// aware: "manga" matches "manga" and "manga::slug=x" but not "manga-list".
func HasKindPrefix(key, kind string) bool {
	if !strings.HasPrefix(key, kind) {
		return false
	}
	rest := key[len(kind):]
	return rest == "" || strings.HasPrefix(rest, KeySeparator)
}
