package dataset

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tells how the cells of a column are typed.
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is a single typed cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Text   string
	Number decimal.Decimal
	Time   time.Time
}

// Text builds a text cell.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Number builds a numeric cell.
func Number(d decimal.Decimal) Value {
	return Value{Kind: KindNumber, Number: d}
}

// Date builds a date cell. The zero time marks a missing date.
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Time: t}
}

// MissingDate reports whether the cell is a date that could not be parsed.
func (v Value) MissingDate() bool {
	return v.Kind == KindDate && v.Time.IsZero()
}

// String renders the cell the way it is compared and grouped.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return v.Number.String()
	case KindDate:
		if v.Time.IsZero() {
			return ""
		}
		return v.Time.Format("2006-01-02")
	default:
		return v.Text
	}
}

// Equal compares two cells by kind and content.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number.Equal(other.Number)
	case KindDate:
		return v.Time.Equal(other.Time)
	default:
		return v.Text == other.Text
	}
}
