package ledger

import "github.com/xraph/invoiceledger/types"

// Re-export common types so callers don't have to import types.

type (
	Money  = types.Money
	Date   = types.Date
	Entity = types.Entity
)

var (
	EUR           = types.EUR
	USD           = types.USD
	Zero          = types.Zero
	Sum           = types.Sum
	NewEntity     = types.NewEntity
	ParseDate     = types.ParseDate
	NewDate       = types.NewDate
	MustParseDate = types.MustParseDate
)
