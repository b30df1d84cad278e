package id

import (
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind identifies the entity type an Address names.
type Kind string

// Kind constants for derived addresses.
const (
	KindPlan         Kind = "plan" // Plan address: derive("plan", merchant, key)
	KindSubscription Kind = "sub"  // Subscription address: derive("sub", subscriber, plan)
)

// Address is a deterministic identifier derived from an entity's
// owning key tuple. The same inputs always produce the same Address,
// so creation is naturally idempotent and lookups need no registry of
// issued IDs. Rendered "kind_suffix" where suffix is the hex of a
// SHA-256 over the kind and the tuple components.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Address struct {
	kind   Kind
	suffix string
}

// NilAddress is the zero-value Address.
var NilAddress Address

// Derive computes the Address of the given kind for a key tuple. Tuple
// components are length-prefixed before hashing so ("ab","c") and
// ("a","bc") cannot collide.
func Derive(kind Kind, parts ...string) Address {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		fmt.Fprintf(h, "/%d:", len(p))
		h.Write([]byte(p))
	}

	return Address{kind: kind, suffix: hex.EncodeToString(h.Sum(nil))}
}

// PlanAddress derives the address of the plan a merchant registered
// under a merchant-chosen key.
func PlanAddress(merchant ID, key string) Address {
	return Derive(KindPlan, merchant.String(), key)
}

// SubscriptionAddress derives the address of a subscriber's enrollment
// in a plan. One subscriber, one plan, one address.
func SubscriptionAddress(subscriber ID, plan Address) Address {
	return Derive(KindSubscription, subscriber.String(), plan.String())
}

// ParseAddress parses a "kind_suffix" string into an Address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return NilAddress, fmt.Errorf("id: parse address %q: empty string", s)
	}

	idx := strings.LastIndex(s, "_")
	if idx <= 0 || idx == len(s)-1 {
		return NilAddress, fmt.Errorf("id: parse address %q: missing kind or suffix", s)
	}

	kind, suffix := Kind(s[:idx]), s[idx+1:]
	switch kind {
	case KindPlan, KindSubscription:
	default:
		return NilAddress, fmt.Errorf("id: parse address %q: unknown kind %q", s, kind)
	}

	if len(suffix) != sha256.Size*2 {
		return NilAddress, fmt.Errorf("id: parse address %q: suffix must be %d hex chars", s, sha256.Size*2)
	}
	if _, err := hex.DecodeString(suffix); err != nil {
		return NilAddress, fmt.Errorf("id: parse address %q: %w", s, err)
	}

	return Address{kind: kind, suffix: suffix}, nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse address %q: %v", s, err))
	}

	return a
}

// String returns the "kind_suffix" representation.
// Returns an empty string for the nil Address.
func (a Address) String() string {
	if a.kind == "" {
		return ""
	}

	return string(a.kind) + "_" + a.suffix
}

// Kind returns the kind component of this Address.
func (a Address) Kind() Kind { return a.kind }

// IsNil reports whether this Address is the zero value.
func (a Address) IsNil() bool { return a.kind == "" }

// Equal reports whether two Addresses name the same record.
func (a Address) Equal(other Address) bool {
	return a.kind == other.kind && a.suffix == other.suffix
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	if a.IsNil() {
		return []byte{}, nil
	}

	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = NilAddress

		return nil
	}

	parsed, err := ParseAddress(string(data))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
func (a Address) Value() (driver.Value, error) {
	if a.IsNil() {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return a.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Address) Scan(src any) error {
	if src == nil {
		*a = NilAddress

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*a = NilAddress

			return nil
		}

		return a.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*a = NilAddress

			return nil
		}

		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into Address", src)
	}
}
