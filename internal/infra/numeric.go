package infra

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// moneyPlaces is the scale of numeric(14,2) money columns.
const moneyPlaces = 2

// NumericToFloat64 converts a PostgreSQL numeric to float64.
// Returns an error for NULL, NaN or infinite values.
func NumericToFloat64(n pgtype.Numeric) (float64, error) {
	if !n.Valid {
		return 0, fmt.Errorf("numeric value is NULL")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return 0, fmt.Errorf("numeric value is not finite")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp).InexactFloat64(), nil
}

// NullableNumeric converts a possibly NULL numeric to *float64.
func NullableNumeric(n pgtype.Numeric) (*float64, error) {
	if !n.Valid {
		return nil, nil
	}
	v, err := NumericToFloat64(n)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Float64ToNumeric converts v to a numeric rounded to places decimal places.
func Float64ToNumeric(v float64, places int32) pgtype.Numeric {
	d := decimal.NewFromFloat(v).Round(places)
	return pgtype.Numeric{
		Int:              d.Coefficient(),
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Valid:            true,
	}
}

// MoneyToNumeric converts a currency amount for a numeric(14,2) column.
func MoneyToNumeric(v float64) pgtype.Numeric {
	return Float64ToNumeric(v, moneyPlaces)
}

// OptionalToNumeric converts a nil pointer to SQL NULL.
func OptionalToNumeric(v *float64, places int32) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return Float64ToNumeric(*v, places)
}
