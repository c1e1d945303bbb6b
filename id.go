package journal

import "github.com/bookkeep/journal/id"

// ID is the primary identifier type for all Journal entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
