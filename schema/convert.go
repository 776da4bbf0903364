package schema

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/arloliu/bitpack/errs"
)

// toInt64 accepts every Go integer type, integral floats and JSON numbers.
func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt64(x)
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	case json.Number:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", errs.ErrInvalidValue, x)
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", errs.ErrInvalidValue, v)
	}
}

func uintToInt64(x uint64) (int64, error) {
	if x > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d overflows int64", errs.ErrValueOutOfRange, x)
	}

	return int64(x), nil
}

func floatToInt64(x float64) (int64, error) {
	if x != math.Trunc(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v is not an integer", errs.ErrInvalidValue, x)
	}
	// 2^63 is the first float64 above MaxInt64.
	if x < math.MinInt64 || x >= 1<<63 {
		return 0, fmt.Errorf("%w: %v overflows int64", errs.ErrValueOutOfRange, x)
	}

	return int64(x), nil
}

// toUint64 accepts every Go integer type, integral floats and JSON numbers.
// Negative values are out of range.
func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case float32:
		return floatToUint64(float64(x))
	case float64:
		return floatToUint64(x)
	case json.Number:
		n, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an unsigned integer", errs.ErrInvalidValue, x)
		}

		return n, nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return 0, err
		}
		if n < 0 {
			return 0, fmt.Errorf("%w: %d is negative", errs.ErrValueOutOfRange, n)
		}

		return uint64(n), nil
	}
}

func floatToUint64(x float64) (uint64, error) {
	if x != math.Trunc(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%w: %v is not an integer", errs.ErrInvalidValue, x)
	}
	if x < 0 || x >= 1<<64 {
		return 0, fmt.Errorf("%w: %v overflows uint64", errs.ErrValueOutOfRange, x)
	}

	return uint64(x), nil
}

// toFloat64 accepts floats, integers and JSON numbers.
func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		f, err := strconv.ParseFloat(string(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", errs.ErrInvalidValue, x)
		}

		return f, nil
	case uint, uint8, uint16, uint32, uint64:
		n, _ := toUint64(x)
		return float64(n), nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return 0, fmt.Errorf("%w: %T is not a number", errs.ErrInvalidValue, v)
		}

		return float64(n), nil
	}
}
