package genesis

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConfigError reports a missing or invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// AddressFormatError reports an address that is not 20 hex-encoded bytes.
// Index is the position inside a list field, or -1 for map keys and scalars.
type AddressFormatError struct {
	Field string
	Index int
	Value string
}

func (e *AddressFormatError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("config %s: malformed address %q", e.Field, e.Value)
	}
	return fmt.Sprintf("config %s[%d]: malformed address %q", e.Field, e.Index, e.Value)
}

// SupplyOverflowError reports that explicit allocations exceed the total
// supply, leaving a negative remainder.
type SupplyOverflowError struct {
	Allocated decimal.Decimal
	Supply    decimal.Decimal
}

func (e *SupplyOverflowError) Error() string {
	return fmt.Sprintf("allocated %s base units, exceeding total supply %s by %s",
		e.Allocated, e.Supply, e.Allocated.Sub(e.Supply))
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
