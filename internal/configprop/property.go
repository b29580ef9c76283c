// Package configprop holds the typed, admin-editable settings that pages
// read on every request. Property definitions are immutable values declared
// by the package that owns them; the current value lives in the settings
// table and falls back to the definition's default.
package configprop

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/sydlexius/sprout/internal/logging"
)

// Type is the value type of a property.
type Type string

// Supported property types.
const (
	TypeUnicodeString Type = "UnicodeString"
	TypeList          Type = "List"
)

// Errors returned by the registry and store.
var (
	ErrUnknownProperty = errors.New("unknown config property")
	ErrInvalidValue    = errors.New("invalid config property value")
)

// Property defines a named, typed setting with a default. Default is a
// string for TypeUnicodeString and a []string for TypeList.
type Property struct {
	Name        string `json:"name"`
	Type        Type   `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default"`

	// Check, when set, vets a raw admin value before it is stored.
	Check func(raw string) error `json:"-"`
}

// BannedUsernames lists usernames that never get the signed-in editor
// experience on public pages.
var BannedUsernames = Property{
	Name:        "banned_usernames",
	Type:        TypeList,
	Description: "Banned usernames",
	Default:     []string{},
}

// LoggingLevel and LoggingFormat let admins change log output at runtime.
var (
	LoggingLevel = Property{
		Name:        "logging_level",
		Type:        TypeUnicodeString,
		Description: "Log level (debug, info, warn, error); blank keeps the startup value",
		Default:     "",
		Check:       blankOr(logging.ValidLevel, "debug, info, warn, error"),
	}
	LoggingFormat = Property{
		Name:        "logging_format",
		Type:        TypeUnicodeString,
		Description: "Log format (json, text); blank keeps the startup value",
		Default:     "",
		Check:       blankOr(logging.ValidFormat, "json, text"),
	}
)

// blankOr accepts the empty string or any value valid reports true for.
func blankOr(valid func(string) bool, allowed string) func(string) error {
	return func(raw string) error {
		if raw == "" || valid(raw) {
			return nil
		}
		return fmt.Errorf("%q is not one of %s", raw, allowed)
	}
}

func (p Property) validate() error {
	if p.Name == "" {
		return fmt.Errorf("property name is required")
	}
	switch p.Type {
	case TypeUnicodeString:
		if _, ok := p.Default.(string); !ok {
			return fmt.Errorf("property %s: default must be a string", p.Name)
		}
	case TypeList:
		if _, ok := p.Default.([]string); !ok {
			return fmt.Errorf("property %s: default must be a []string", p.Name)
		}
	default:
		return fmt.Errorf("property %s: unsupported type %q", p.Name, p.Type)
	}
	return nil
}

// encode converts a raw admin-supplied value into its stored form,
// rejecting values that do not match the property type.
func (p Property) encode(raw string) (string, error) {
	if p.Check != nil {
		if err := p.Check(raw); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrInvalidValue, p.Name, err)
		}
	}
	if p.Type != TypeList {
		return raw, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return "", fmt.Errorf("%w: %s expects a JSON array of strings", ErrInvalidValue, p.Name)
	}
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", p.Name, err)
	}
	return string(b), nil
}

// Registry is the set of known properties, keyed by name.
type Registry struct {
	props map[string]Property
}

// NewRegistry builds a registry, rejecting invalid and duplicate properties.
func NewRegistry(props ...Property) (*Registry, error) {
	r := &Registry{props: make(map[string]Property, len(props))}
	for _, p := range props {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.props[p.Name]; dup {
			return nil, fmt.Errorf("property %s registered twice", p.Name)
		}
		r.props[p.Name] = p
	}
	return r, nil
}

// Lookup returns the property with the given name.
func (r *Registry) Lookup(name string) (Property, bool) {
	p, ok := r.props[name]
	return p, ok
}

// All returns every registered property ordered by name.
func (r *Registry) All() []Property {
	out := make([]Property, 0, len(r.props))
	for _, p := range r.props {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
