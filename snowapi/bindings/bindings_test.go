package bindings

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeTags(t *testing.T) {
	cases := []struct {
		name  string
		value Value
		typ   Type
		text  string
	}{
		{"bool", Bool(true), Boolean, "true"},
		{"int8", Int8(-8), Fixed, "-8"},
		{"int16", Int16(1600), Fixed, "1600"},
		{"int32", Int32(69), Fixed, "69"},
		{"int64", Int64(math.MinInt64), Fixed, "-9223372036854775808"},
		{"uint8", Uint8(255), Fixed, "255"},
		{"uint16", Uint16(65535), Fixed, "65535"},
		{"uint32", Uint32(7), Fixed, "7"},
		{"uint64", Uint64(math.MaxUint64), Fixed, "18446744073709551615"},
		{"float32", Float32(1.5), Real, "1.5"},
		{"float64", Float64(0.1), Real, "0.1"},
		{"inf", Float64(math.Inf(1)), Real, "inf"},
		{"decimal", Decimal(big.NewRat(12345, 100)), Fixed, "123.45"},
		{"decimal int", Decimal(big.NewRat(42, 1)), Fixed, "42"},
		{"nil decimal", Decimal(nil), Fixed, "0"},
		{"char", Char('x'), Text, "x"},
		{"text", String("JoMama"), Text, "JoMama"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.typ, tc.value.Type())
			assert.Equal(t, tc.text, tc.value.String())
		})
	}
}

func TestTemporalEncodings(t *testing.T) {
	ts := time.Date(2024, 3, 15, 13, 45, 30, 123456789, time.UTC)

	d := DateOf(ts)
	assert.Equal(t, Date, d.Type())
	assert.Equal(t, strconv.FormatInt(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), 10), d.String())

	stamp := Timestamp(ts)
	assert.Equal(t, TimestampNTZ, stamp.Type())
	assert.Equal(t, strconv.FormatInt(ts.UnixNano(), 10), stamp.String())

	tod := TimeOfDay(90*time.Minute + 30*time.Second)
	assert.Equal(t, Time, tod.Type())
	assert.Equal(t, "90.5", tod.String())
}

func TestTimestampOutsideNanosecondRange(t *testing.T) {
	assert.Equal(t, "32503680000000000000", Timestamp(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "-11676095999999999999", Timestamp(time.Date(1600, 1, 1, 0, 0, 0, 1, time.UTC)).String())
	assert.Equal(t, "253402300799999999999", Timestamp(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)).String())

	_, err := ParseTimestamp("1e9")
	assert.Error(t, err)
	_, err = ParseTimestamp("99999999999999999999999999999999999")
	assert.Error(t, err)
}

func TestDateUsesCalendarDayOfInput(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	late := time.Date(2024, 1, 2, 1, 0, 0, 0, loc)
	got, err := ParseDate(DateOf(late).String())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestTimeOfDayWraps(t *testing.T) {
	assert.Equal(t, TimeOfDay(time.Hour).String(), TimeOfDay(25*time.Hour).String())
	assert.Equal(t, TimeOfDay(23*time.Hour).String(), TimeOfDay(-time.Hour).String())
}

func TestRoundTrip(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		for _, i := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
			got, err := strconv.ParseInt(Int64(i).String(), 10, 64)
			require.NoError(t, err)
			assert.Equal(t, i, got)
		}
		got, err := strconv.ParseUint(Uint64(math.MaxUint64).String(), 10, 64)
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), got)
	})

	t.Run("floats", func(t *testing.T) {
		for _, f := range []float64{0, 0.1, -3.25, 1e300, math.SmallestNonzeroFloat64, math.Inf(-1)} {
			got, err := strconv.ParseFloat(Float64(f).String(), 64)
			require.NoError(t, err)
			assert.Equal(t, f, got)
		}
		f32 := float32(3.14159)
		got, err := strconv.ParseFloat(Float32(f32).String(), 32)
		require.NoError(t, err)
		assert.Equal(t, f32, float32(got))
	})

	t.Run("decimal", func(t *testing.T) {
		for _, r := range []*big.Rat{big.NewRat(1, 8), big.NewRat(-7, 20), big.NewRat(123456789, 1000)} {
			got, ok := new(big.Rat).SetString(Decimal(r).String())
			require.True(t, ok)
			assert.Zero(t, r.Cmp(got), "want %s got %s", r, got)
		}
	})

	t.Run("bool", func(t *testing.T) {
		for _, b := range []bool{true, false} {
			got, err := strconv.ParseBool(Bool(b).String())
			require.NoError(t, err)
			assert.Equal(t, b, got)
		}
	})

	t.Run("date", func(t *testing.T) {
		day := time.Date(1969, 7, 20, 0, 0, 0, 0, time.UTC)
		got, err := ParseDate(DateOf(day).String())
		require.NoError(t, err)
		assert.True(t, day.Equal(got))
	})

	t.Run("time", func(t *testing.T) {
		for _, d := range []time.Duration{0, time.Nanosecond, 13*time.Hour + 7*time.Second + 999999999, 24*time.Hour - 1} {
			got, err := ParseTime(TimeOfDay(d).String())
			require.NoError(t, err)
			assert.Equal(t, d, got)
		}
	})

	t.Run("timestamp", func(t *testing.T) {
		for _, ts := range []time.Time{
			time.Date(2001, 9, 9, 1, 46, 40, 5, time.UTC),
			time.Date(1969, 12, 31, 23, 59, 59, 999999999, time.UTC),
			time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(1600, 1, 1, 0, 0, 0, 1, time.UTC),
			time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC),
		} {
			got, err := ParseTimestamp(Timestamp(ts).String())
			require.NoError(t, err)
			assert.True(t, ts.Equal(got), "want %s got %s", ts, got)
		}
	})
}

func TestDecimalWithoutFiniteExpansion(t *testing.T) {
	v := Decimal(big.NewRat(1, 3))
	assert.Equal(t, "0."+repeat('3', maxDecimalScale), v.String())
}

func TestOf(t *testing.T) {
	v, err := Of(69)
	require.NoError(t, err)
	assert.Equal(t, Fixed, v.Type())

	v, err = Of("JoMama")
	require.NoError(t, err)
	assert.Equal(t, Text, v.Type())

	v, err = Of(time.Unix(1, 0))
	require.NoError(t, err)
	assert.Equal(t, TimestampNTZ, v.Type())
	assert.Equal(t, "1000000000", v.String())

	_, err = Of(struct{}{})
	assert.Error(t, err)
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(map[string]Value{"1": Int32(69), "2": String("JoMama")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"type":"FIXED","value":"69"},"2":{"type":"TEXT","value":"JoMama"}}`, string(b))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Int32(69), back["1"])
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
