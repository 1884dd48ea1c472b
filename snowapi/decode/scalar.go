package decode

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vjain20/gosnowapi/snowapi/bindings"
)

// Decoder parses one raw cell. A nil raw value is SQL NULL.
type Decoder[V any] func(raw *string) (V, error)

// Scalar lifts a string parser into a Decoder that rejects NULL, in either
// of the forms IsNull accepts.
func Scalar[V any](parse func(string) (V, error)) Decoder[V] {
	return func(raw *string) (V, error) {
		if IsNull(raw) {
			var zero V
			return zero, ErrUnexpectedNull
		}
		return parse(*raw)
	}
}

// IsNull reports whether a raw cell carries SQL NULL. Requests are sent with
// nullable=false, so NULL may arrive as the text "null" as well as JSON null.
func IsNull(raw *string) bool {
	return raw == nil || strings.EqualFold(*raw, "null")
}

// Nullable wraps dec so that NULL decodes to a nil pointer instead of an error.
func Nullable[V any](dec Decoder[V]) Decoder[*V] {
	return func(raw *string) (*V, error) {
		if IsNull(raw) {
			return nil, nil
		}
		v, err := dec(raw)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
}

// FieldUnmarshaler is implemented by types that parse themselves from a raw cell.
type FieldUnmarshaler interface {
	UnmarshalField(raw *string) error
}

// Custom returns a Decoder for any type whose pointer implements FieldUnmarshaler.
func Custom[V any, P interface {
	*V
	FieldUnmarshaler
}]() Decoder[V] {
	return func(raw *string) (V, error) {
		var v V
		err := P(&v).UnmarshalField(raw)
		return v, err
	}
}

// JSON returns a Decoder that parses the cell as a JSON document.
func JSON[V any]() Decoder[V] {
	return parseJSON[V]
}

var (
	String  = Scalar(func(s string) (string, error) { return s, nil })
	Bool    = Scalar(strconv.ParseBool)
	Int     = signed[int](strconv.IntSize)
	Int8    = signed[int8](8)
	Int16   = signed[int16](16)
	Int32   = signed[int32](32)
	Int64   = signed[int64](64)
	Uint    = unsigned[uint](strconv.IntSize)
	Uint8   = unsigned[uint8](8)
	Uint16  = unsigned[uint16](16)
	Uint32  = unsigned[uint32](32)
	Uint64  = unsigned[uint64](64)
	Float32 = Scalar(func(s string) (float32, error) {
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	})
	Float64 = Scalar(func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	Decimal = Scalar(parseDecimal)

	// Date accepts the service's day count since the epoch or an ISO date.
	Date = Scalar(parseDate)
	// TimeOfDay accepts seconds since midnight with an optional fraction, or hh:mm:ss[.fff].
	TimeOfDay = Scalar(parseTimeOfDay)
	// Timestamp accepts seconds since the epoch with an optional fraction, RFC 3339,
	// or "2006-01-02 15:04:05[.fff]". Results are in UTC.
	Timestamp = Scalar(parseTimestamp)

	// DateMillis, TimeMinutes and TimestampNanos read the binding encodings.
	DateMillis     = Scalar(bindings.ParseDate)
	TimeMinutes    = Scalar(bindings.ParseTime)
	TimestampNanos = Scalar(bindings.ParseTimestamp)
)

func signed[V int | int8 | int16 | int32 | int64](bits int) Decoder[V] {
	return Scalar(func(s string) (V, error) {
		i, err := strconv.ParseInt(s, 10, bits)
		return V(i), err
	})
}

func unsigned[V uint | uint8 | uint16 | uint32 | uint64](bits int) Decoder[V] {
	return Scalar(func(s string) (V, error) {
		u, err := strconv.ParseUint(s, 10, bits)
		return V(u), err
	})
}

func parseDecimal(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}
	return r, nil
}

func parseDate(s string) (time.Time, error) {
	if days, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(days*86400, 0).UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}

func parseTimeOfDay(s string) (time.Duration, error) {
	if strings.Contains(s, ":") {
		t, err := time.Parse("15:04:05.999999999", s)
		if err != nil {
			return 0, err
		}
		return t.Sub(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)), nil
	}
	sec, nsec, err := splitSeconds(s)
	if err != nil {
		return 0, err
	}
	return time.Duration(sec)*time.Second + time.Duration(nsec), nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	if sec, nsec, err := splitSeconds(s); err == nil {
		return time.Unix(sec, nsec).UTC(), nil
	}
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// splitSeconds parses "secs[.fraction]" into whole seconds and nanoseconds.
// A TIMESTAMP_TZ suffix (" offset") is ignored.
func splitSeconds(s string) (int64, int64, error) {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if frac == "" {
		return sec, 0, nil
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	frac += strings.Repeat("0", 9-len(frac))
	nsec, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if strings.HasPrefix(whole, "-") {
		nsec = -nsec
	}
	return sec, nsec, nil
}
