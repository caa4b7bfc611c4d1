package types

import (
	"net/netip"
	"strings"
)

// EntityKind classifies an entity value
type EntityKind string

const (
	KindIPv4  EntityKind = "IPv4"
	KindIPv6  EntityKind = "IPv6"
	KindOther EntityKind = "Other"
)

// Entity is a single indicator submitted for lookup
type Entity struct {
	Value     string     `json:"value"`
	Kind      EntityKind `json:"type"`
	IsPrivate bool       `json:"isPrivateIP"`
}

// NewEntity classifies value as an IPv4, IPv6 or free-text entity.
// Loopback, link-local, unspecified and RFC1918/ULA addresses are private.
func NewEntity(value string) Entity {
	value = strings.TrimSpace(value)
	addr, err := netip.ParseAddr(value)
	if err != nil {
		return Entity{Value: value, Kind: KindOther}
	}

	kind := KindIPv6
	if addr.Unmap().Is4() {
		kind = KindIPv4
	}

	return Entity{
		Value:     value,
		Kind:      kind,
		IsPrivate: isPrivateAddr(addr.Unmap()),
	}
}

// NewEntities classifies each value in order
func NewEntities(values []string) []Entity {
	entities := make([]Entity, 0, len(values))
	for _, v := range values {
		entities = append(entities, NewEntity(v))
	}
	return entities
}

// IsIP reports whether the entity is an IPv4 or IPv6 address
func (e Entity) IsIP() bool {
	return e.Kind == KindIPv4 || e.Kind == KindIPv6
}

func isPrivateAddr(addr netip.Addr) bool {
	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
