package ledger

import "github.com/xraph/invoiceledger/id"

// ID is the identifier type of every ledger entity.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
