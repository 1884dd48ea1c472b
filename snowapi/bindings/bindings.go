// Package bindings models positional parameter values attached to a statement
// and their canonical wire encoding: a type tag plus a string.
package bindings

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Type is the wire type tag of a binding.
type Type string

const (
	Boolean      Type = "BOOLEAN"
	Fixed        Type = "FIXED"
	Real         Type = "REAL"
	Text         Type = "TEXT"
	Date         Type = "DATE"
	Time         Type = "TIME"
	TimestampNTZ Type = "TIMESTAMP_NTZ"
)

// maxDecimalScale is the number of fractional digits kept for decimals that
// have no finite decimal expansion.
const maxDecimalScale = 37

const nanosPerMinute = int64(time.Minute)

var nanosPerSecond = big.NewInt(int64(time.Second))

// Value is an immutable binding: exactly one type tag and one canonical string.
type Value struct {
	typ  Type
	text string
}

// Type returns the wire type tag.
func (v Value) Type() Type { return v.typ }

// String returns the canonical wire representation.
func (v Value) String() string { return v.text }

// IsZero reports whether v was never constructed.
func (v Value) IsZero() bool { return v.typ == "" }

type wireValue struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// MarshalJSON encodes v as {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireValue{Type: v.typ, Value: v.text})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (v *Value) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	v.typ, v.text = w.Type, w.Value
	return nil
}

func Bool(b bool) Value { return Value{typ: Boolean, text: strconv.FormatBool(b)} }

func Int8(i int8) Value   { return Int64(int64(i)) }
func Int16(i int16) Value { return Int64(int64(i)) }
func Int32(i int32) Value { return Int64(int64(i)) }
func Int64(i int64) Value { return Value{typ: Fixed, text: strconv.FormatInt(i, 10)} }

func Uint8(u uint8) Value   { return Uint64(uint64(u)) }
func Uint16(u uint16) Value { return Uint64(uint64(u)) }
func Uint32(u uint32) Value { return Uint64(uint64(u)) }
func Uint64(u uint64) Value { return Value{typ: Fixed, text: strconv.FormatUint(u, 10)} }

func Float32(f float32) Value { return Value{typ: Real, text: formatFloat(float64(f), 32)} }
func Float64(f float64) Value { return Value{typ: Real, text: formatFloat(f, 64)} }

// Decimal binds an arbitrary-precision number. Values without a finite
// decimal expansion are rounded to 37 fractional digits. A nil value binds 0.
func Decimal(r *big.Rat) Value {
	if r == nil {
		return Value{typ: Fixed, text: "0"}
	}
	return Value{typ: Fixed, text: decimalString(r)}
}

// Char binds a single character as text.
func Char(r rune) Value { return Value{typ: Text, text: string(r)} }

// String binds s as text.
func String(s string) Value { return Value{typ: Text, text: s} }

// DateOf binds the calendar date of t as epoch milliseconds of its UTC midnight.
func DateOf(t time.Time) Value {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Value{typ: Date, text: strconv.FormatInt(midnight.UnixMilli(), 10)}
}

// TimeOf binds the wall clock of t as fractional minutes since midnight.
func TimeOf(t time.Time) Value {
	h, m, s := t.Clock()
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
	return TimeOfDay(d)
}

// TimeOfDay binds d, taken modulo 24h, as fractional minutes since midnight.
func TimeOfDay(d time.Duration) Value {
	d %= 24 * time.Hour
	if d < 0 {
		d += 24 * time.Hour
	}
	minutes := new(big.Rat).SetFrac64(int64(d), nanosPerMinute)
	return Value{typ: Time, text: trimFraction(minutes.FloatString(12))}
}

// Timestamp binds t as nanoseconds since the Unix epoch. The count is exact
// for any year, including those beyond the int64 nanosecond range.
func Timestamp(t time.Time) Value {
	ns := new(big.Int).Mul(big.NewInt(t.Unix()), nanosPerSecond)
	ns.Add(ns, big.NewInt(int64(t.Nanosecond())))
	return Value{typ: TimestampNTZ, text: ns.String()}
}

// Of converts a native Go value. It fails only for types outside the
// supported set.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int64(int64(x)), nil
	case int8:
		return Int8(x), nil
	case int16:
		return Int16(x), nil
	case int32:
		return Int32(x), nil
	case int64:
		return Int64(x), nil
	case uint:
		return Uint64(uint64(x)), nil
	case uint8:
		return Uint8(x), nil
	case uint16:
		return Uint16(x), nil
	case uint32:
		return Uint32(x), nil
	case uint64:
		return Uint64(x), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case *big.Rat:
		return Decimal(x), nil
	case string:
		return String(x), nil
	case time.Time:
		return Timestamp(x), nil
	case time.Duration:
		return TimeOfDay(x), nil
	default:
		return Value{}, fmt.Errorf("bindings: unsupported type %T", v)
	}
}

// ParseDate is the inverse of DateOf's encoding.
func ParseDate(s string) (time.Time, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date millis %q: %w", s, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// ParseTime is the inverse of TimeOfDay's encoding, rounded to the nearest nanosecond.
func ParseTime(s string) (time.Duration, error) {
	minutes, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("parse time minutes %q: invalid decimal", s)
	}
	nanos := new(big.Rat).Mul(minutes, new(big.Rat).SetInt64(nanosPerMinute))
	q, m := new(big.Int).QuoRem(nanos.Num(), nanos.Denom(), new(big.Int))
	if new(big.Int).Mul(new(big.Int).Abs(m), big.NewInt(2)).Cmp(nanos.Denom()) >= 0 {
		if nanos.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	if !q.IsInt64() {
		return 0, fmt.Errorf("parse time minutes %q: out of range", s)
	}
	return time.Duration(q.Int64()), nil
}

// ParseTimestamp is the inverse of Timestamp's encoding.
func ParseTimestamp(s string) (time.Time, error) {
	ns, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return time.Time{}, fmt.Errorf("parse timestamp nanos %q: invalid integer", s)
	}
	sec, nsec := new(big.Int).QuoRem(ns, nanosPerSecond, new(big.Int))
	if !sec.IsInt64() {
		return time.Time{}, fmt.Errorf("parse timestamp nanos %q: out of range", s)
	}
	return time.Unix(sec.Int64(), nsec.Int64()).UTC(), nil
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func decimalString(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	scale, ok := finiteScale(r.Denom())
	if !ok {
		scale = maxDecimalScale
	}
	return trimFraction(r.FloatString(scale))
}

// finiteScale returns the number of fractional digits needed to write 1/den
// exactly, or false when den has a prime factor other than 2 or 5.
func finiteScale(den *big.Int) (int, bool) {
	d := new(big.Int).Set(den)
	twos := int(d.TrailingZeroBits())
	d.Rsh(d, uint(twos))
	fives := 0
	five := big.NewInt(5)
	q, m := new(big.Int), new(big.Int)
	for {
		q.QuoRem(d, five, m)
		if m.Sign() != 0 {
			break
		}
		d.Set(q)
		fives++
	}
	if d.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}

func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
