package emailaddr

import (
	"database/sql/driver"
	"fmt"
)

// MarshalText implements encoding.TextMarshaler. JSON encodes an Address
// as its canonical string through this method.
func (a Address) MarshalText() ([]byte, error) {
	if a.IsZero() {
		return nil, ErrZeroAddress
	}
	return []byte(a.text), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (a *Address) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value implements driver.Valuer. Addresses are stored as canonical text.
func (a Address) Value() (driver.Value, error) {
	if a.IsZero() {
		return nil, ErrZeroAddress
	}
	return a.text, nil
}

// Scan implements sql.Scanner for text columns.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case nil:
		return fmt.Errorf("scan email address: %w", ErrZeroAddress)
	default:
		return fmt.Errorf("scan email address: unsupported source type %T", src)
	}
}

// NullAddress is an Address that may be NULL, mirroring sql.NullString.
type NullAddress struct {
	Address Address
	Valid   bool
}

// Scan implements sql.Scanner.
func (n *NullAddress) Scan(src any) error {
	if src == nil {
		n.Address, n.Valid = Address{}, false
		return nil
	}
	if err := n.Address.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n NullAddress) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Address.Value()
}
