package folio

import "github.com/shopspring/decimal"

// ShareDigits is the number of decimals shares are persisted and displayed with.
const ShareDigits = 8

// epsilon is the tolerance under which a negative share balance is treated as zero.
var epsilon = decimal.New(1, -6)

// D is a convenient factory for decimal.Decimal.
func D[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Optional returns a valid NullDecimal holding value.
func Optional[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.NullDecimal {
	return decimal.NewNullDecimal(D(value))
}

// RoundShares rounds a share quantity to ShareDigits decimals.
func RoundShares(q decimal.Decimal) decimal.Decimal { return q.Round(ShareDigits) }

// Quantity formats share counts.
type Quantity struct{ value decimal.Decimal }

// Q wraps a share count for display.
func Q[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Quantity {
	return Quantity{value: D(value)}
}

func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }

// String prints the quantity rounded to ShareDigits without trailing zeros.
func (q Quantity) String() string { return RoundShares(q.value).String() }
