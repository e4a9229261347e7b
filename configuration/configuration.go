// Package configuration describes layered, string-valued configuration for the analysis tools, workers and services.
//
// Sources are combined with Overlay, where the first source offering an item wins, so a typical configuration looks
// like Overlay{flags, Environment(`OVERLAP_`), file, defaults}.
package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Interface describes a source of named configuration items.
type Interface interface {
	// GetConfiguration returns the configured values for a name, usually nil or a single string.  Nil means the item
	// was not configured and a default should be used.
	GetConfiguration(name string) []string

	// Configured lists the configured items.  The list does not need to be unique or sorted.
	Configured() []string
}

// Unmarshal fills the exported fields of v, which must be a pointer to a struct, from cf.  Field names are looked up
// as-is unless overridden by one of the following struct tags, in order of precedence: "cfg", "yaml", "json".
// Unconfigured fields are left unchanged, so defaults can be assigned before calling Unmarshal.
func Unmarshal(v any, cf Interface) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf(`unmarshal can only be used with struct pointers, got %T`, v)
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		ft := rt.Field(i)
		if !ft.IsExported() {
			continue
		}
		name := fieldName(ft)
		if name == `` {
			continue
		}
		if err := Get(rv.Field(i).Addr().Interface(), cf, name); err != nil {
			return err
		}
	}
	return nil
}

func fieldName(ft reflect.StructField) string {
	name := ft.Name
	for _, key := range []string{`cfg`, `yaml`, `json`} {
		if tag := ft.Tag.Get(key); tag != `` {
			name = strings.SplitN(tag, `,`, 2)[0]
			break
		}
	}
	if name == `-` {
		return ``
	}
	return name
}

// Get resolves ref from the named item of cf.  Ref must point to a string, a slice of strings, a bool, an int or a
// float.  If the item is not configured, ref is left unchanged.
func Get(ref any, cf Interface, name string) error {
	values := cf.GetConfiguration(name)
	if values == nil {
		return nil
	}
	if ref, ok := ref.(*[]string); ok {
		*ref = values
		return nil
	}
	switch len(values) {
	case 0:
		return nil
	case 1:
	default:
		return fmt.Errorf(`only one value allowed for %q, got %d`, name, len(values))
	}
	value := values[0]

	switch ref := ref.(type) {
	case *string:
		*ref = value
	case *bool:
		switch strings.ToLower(value) {
		case `true`, `yes`, `on`, `1`:
			*ref = true
		case `false`, `no`, `off`, `0`:
			*ref = false
		default:
			return fmt.Errorf(`invalid boolean value %q for %q`, value, name)
		}
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf(`%w for %q`, err, name)
		}
		*ref = n
	case *float64:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf(`%w for %q`, err, name)
		}
		*ref = n
	default:
		return fmt.Errorf(`unsupported type %T for %q`, ref, name)
	}
	return nil
}

// An Overlay combines several configurations.  The first one offering an item wins, so they should be listed in
// priority order.  Nil entries are skipped.
type Overlay []Interface

// GetConfiguration implements Interface by consulting each configuration in order.
func (cf Overlay) GetConfiguration(name string) []string {
	for _, it := range cf {
		if it == nil {
			continue
		}
		if items := it.GetConfiguration(name); items != nil {
			return items
		}
	}
	return nil
}

// Configured implements Interface by listing the items of every configuration once, in order of first appearance.
func (cf Overlay) Configured() []string {
	seen := make(map[string]struct{}, 64)
	items := make([]string, 0, 64)
	for _, it := range cf {
		if it == nil {
			continue
		}
		for _, item := range it.Configured() {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

// Map provides configuration from a map.  It knows how to marshal and unmarshal itself as JSON and YAML, so it can be
// embedded in requests and configuration files.
type Map map[string][]string

// GetConfiguration implements Interface.
func (cf Map) GetConfiguration(name string) []string { return cf[name] }

// Configured implements Interface.
func (cf Map) Configured() []string {
	items := make([]string, 0, len(cf))
	for item := range cf {
		items = append(items, item)
	}
	return items
}

// UnmarshalJSON satisfies json.Unmarshaler using an object whose values are strings, numbers, booleans, null, or
// arrays of those.
func (cf *Map) UnmarshalJSON(p []byte) error {
	var m map[string]any
	if err := json.Unmarshal(p, &m); err != nil {
		return err
	}
	*cf = make(Map, len(m))
	for k, v := range m {
		switch v := v.(type) {
		case map[string]any:
			return fmt.Errorf(`nested maps not supported for %q`, k)
		case []any:
			items := make([]string, len(v))
			for i, it := range v {
				switch it.(type) {
				case map[string]any, []any:
					return fmt.Errorf(`nested values not supported for %q`, k)
				}
				items[i] = scalar(it)
			}
			(*cf)[k] = items
		default:
			(*cf)[k] = []string{scalar(v)}
		}
	}
	return nil
}

func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return `null`
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// MarshalJSON satisfies json.Marshaler, encoding single values as strings and multiple values as arrays.
func (cf Map) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(cf))
	for k, v := range cf {
		switch len(v) {
		case 0:
		case 1:
			m[k] = v[0]
		default:
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalYAML satisfies yaml.Unmarshaler using a mapping whose values are scalars or sequences of scalars.
func (cf *Map) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf(`expected a mapping, got %v`, value.Kind)
	}
	*cf = make(Map, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		if name == `` {
			return fmt.Errorf(`expected a string key at line %d`, value.Content[i].Line)
		}
		item := value.Content[i+1]
		switch item.Kind {
		case yaml.ScalarNode:
			(*cf)[name] = []string{item.Value}
		case yaml.SequenceNode:
			values := make([]string, len(item.Content))
			for j, v := range item.Content {
				if v.Kind != yaml.ScalarNode {
					return fmt.Errorf(`expected a scalar item in %q at line %d`, name, v.Line)
				}
				values[j] = v.Value
			}
			(*cf)[name] = values
		default:
			return fmt.Errorf(`expected a scalar or sequence for %q at line %d`, name, item.Line)
		}
	}
	return nil
}

// Load reads a configuration file.  Files ending in ".json" are decoded as JSON, anything else as YAML (which also
// accepts most JSON).
func Load(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cf Map
	if strings.EqualFold(filepath.Ext(path), `.json`) {
		err = json.Unmarshal(data, &cf)
	} else {
		err = yaml.Unmarshal(data, &cf)
	}
	if err != nil {
		return nil, fmt.Errorf(`%w while loading %v`, err, path)
	}
	if cf == nil {
		cf = Map{}
	}
	return cf, nil
}

// Environment provides configuration from OS environment variables, adding prefix to each name.  If the prefix is
// uppercase, names are converted to uppercase before lookup, so Environment(`OVERLAP_`) maps "chunk_length" to
// OVERLAP_CHUNK_LENGTH.
func Environment(prefix string) Interface {
	return environment{
		uppercase: prefix != `` && strings.ToUpper(prefix) == prefix,
		prefix:    prefix,
	}
}

type environment struct {
	uppercase bool
	prefix    string
}

func (cf environment) Configured() []string {
	var items []string
	for _, it := range os.Environ() {
		if !strings.HasPrefix(it, cf.prefix) {
			continue
		}
		name, _, _ := strings.Cut(it[len(cf.prefix):], `=`)
		if cf.uppercase {
			name = strings.ToLower(name)
		}
		items = append(items, name)
	}
	return items
}

func (cf environment) GetConfiguration(name string) []string {
	if cf.uppercase {
		name = strings.ToUpper(name)
	}
	value, ok := os.LookupEnv(cf.prefix + name)
	if !ok {
		return nil
	}
	return []string{value}
}

// With returns cf with the named item replaced by values.
func With(cf Interface, name string, values ...any) Interface {
	items := make([]string, len(values))
	for i, it := range values {
		items[i] = fmt.Sprint(it)
	}
	return with{name, items, cf}
}

type with struct {
	name   string
	values []string
	cf     Interface
}

func (cf with) GetConfiguration(name string) []string {
	if name == cf.name {
		return cf.values
	}
	return cf.cf.GetConfiguration(name)
}

func (cf with) Configured() []string {
	return append([]string{cf.name}, cf.cf.Configured()...)
}
