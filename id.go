package recur

import "github.com/xraph/recur/id"

// ID is the primary identifier type for all Recur entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// Address is the deterministic tuple-derived key for plans and
// subscriptions.
type Address = id.Address
