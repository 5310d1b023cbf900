// Package registry maps SS58 prefixes to the networks that use them. It ships
// a built-in table in the shape of the public ss58-registry and lets several
// registries be consulted together.
package registry

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pinch-protocol/ss58/internal/address"
)

//go:embed networks.json
var builtinJSON []byte

var (
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrDuplicateNetwork = errors.New("duplicate network")
	ErrInvalidNetwork   = errors.New("invalid network")
)

// Network describes one registered address format.
type Network struct {
	Prefix          int      `json:"prefix"`
	Network         string   `json:"network"`
	DisplayName     string   `json:"displayName"`
	Symbols         []string `json:"symbols"`
	Decimals        []int    `json:"decimals"`
	StandardAccount string   `json:"standardAccount"`
	Website         string   `json:"website"`
}

// Registry is a source of network definitions.
type Registry interface {
	IsKnown(prefix int) bool
	Lookup(prefix int) (Network, bool)
}

// IsReserved reports whether prefix is set aside and never assigned.
func IsReserved(prefix int) bool {
	return prefix == 46 || prefix == 47
}

// Validate checks that n can be stored in a registry.
func Validate(n Network) error {
	if !address.ValidPrefix(n.Prefix) {
		return fmt.Errorf("%w: prefix %d outside [0, %d]", ErrInvalidNetwork, n.Prefix, address.MaxPrefix)
	}
	if strings.TrimSpace(n.Network) == "" {
		return fmt.Errorf("%w: prefix %d has no network name", ErrInvalidNetwork, n.Prefix)
	}
	if len(n.Symbols) != len(n.Decimals) {
		return fmt.Errorf("%w: %s lists %d symbols and %d decimals", ErrInvalidNetwork, n.Network, len(n.Symbols), len(n.Decimals))
	}
	return nil
}

// Table is an immutable in-memory registry.
type Table struct {
	byPrefix map[int]Network
	byName   map[string]Network
	ordered  []Network
}

// NewTable indexes networks by prefix and by name. Prefixes and names must be
// unique.
func NewTable(networks []Network) (*Table, error) {
	t := &Table{
		byPrefix: make(map[int]Network, len(networks)),
		byName:   make(map[string]Network, len(networks)),
	}
	for _, n := range networks {
		if err := Validate(n); err != nil {
			return nil, err
		}
		if _, ok := t.byPrefix[n.Prefix]; ok {
			return nil, fmt.Errorf("%w: prefix %d", ErrDuplicateNetwork, n.Prefix)
		}
		name := strings.ToLower(n.Network)
		if _, ok := t.byName[name]; ok {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateNetwork, n.Network)
		}
		t.byPrefix[n.Prefix] = n
		t.byName[name] = n
		t.ordered = append(t.ordered, n)
	}
	sort.Slice(t.ordered, func(i, j int) bool { return t.ordered[i].Prefix < t.ordered[j].Prefix })
	return t, nil
}

var builtin = func() *Table {
	var networks []Network
	if err := json.Unmarshal(builtinJSON, &networks); err != nil {
		panic(fmt.Sprintf("registry: parse networks.json: %v", err))
	}
	t, err := NewTable(networks)
	if err != nil {
		panic(fmt.Sprintf("registry: networks.json: %v", err))
	}
	return t
}()

// Builtin returns the table compiled into the binary.
func Builtin() *Table {
	return builtin
}

// IsKnown reports whether prefix belongs to a non-reserved network.
func (t *Table) IsKnown(prefix int) bool {
	_, ok := t.byPrefix[prefix]
	return ok && !IsReserved(prefix)
}

// Lookup returns the network registered under prefix.
func (t *Table) Lookup(prefix int) (Network, bool) {
	n, ok := t.byPrefix[prefix]
	return n, ok
}

// LookupByName finds a network by its case-insensitive name.
func (t *Table) LookupByName(name string) (Network, bool) {
	n, ok := t.byName[strings.ToLower(name)]
	return n, ok
}

// Networks returns every entry ordered by prefix.
func (t *Table) Networks() []Network {
	out := make([]Network, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Chain consults each registry in order; the first match wins.
type Chain []Registry

func (c Chain) IsKnown(prefix int) bool {
	for _, r := range c {
		if r.IsKnown(prefix) {
			return true
		}
	}
	return false
}

func (c Chain) Lookup(prefix int) (Network, bool) {
	for _, r := range c {
		if n, ok := r.Lookup(prefix); ok {
			return n, true
		}
	}
	return Network{}, false
}

// ResolveFormat turns a CLI style format argument, either a number or a
// network name, into a prefix.
func ResolveFormat(r *Table, format string) (int, error) {
	if prefix, err := strconv.Atoi(format); err == nil {
		if !address.ValidPrefix(prefix) {
			return 0, fmt.Errorf("%w: %d", address.ErrInvalidPrefix, prefix)
		}
		return prefix, nil
	}
	n, ok := r.LookupByName(format)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, format)
	}
	return n.Prefix, nil
}
