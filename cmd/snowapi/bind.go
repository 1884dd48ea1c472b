package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vjain20/gosnowapi/snowapi/bindings"
)

// parseBinding reads a type:value flag. Values without a known type prefix
// bind as text.
func parseBinding(s string) (bindings.Value, error) {
	kind, raw, ok := strings.Cut(s, ":")
	if !ok {
		return bindings.String(s), nil
	}
	switch strings.ToLower(kind) {
	case "int":
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.Int64(i), nil
	case "uint":
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.Uint64(u), nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.Float64(f), nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.Bool(b), nil
	case "decimal":
		r, ok := new(big.Rat).SetString(raw)
		if !ok {
			return bindings.Value{}, fmt.Errorf("bind %q: invalid decimal", s)
		}
		return bindings.Decimal(r), nil
	case "date":
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.DateOf(t), nil
	case "time":
		t, err := time.Parse("15:04:05.999999999", raw)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.TimeOf(t), nil
	case "timestamp", "ts":
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return bindings.Value{}, fmt.Errorf("bind %q: %w", s, err)
		}
		return bindings.Timestamp(t), nil
	case "text":
		return bindings.String(raw), nil
	default:
		return bindings.String(s), nil
	}
}

// splitCount reads the N:text form of a batch argument.
func splitCount(arg string) (int, string) {
	prefix, rest, ok := strings.Cut(arg, ":")
	if !ok {
		return 1, arg
	}
	n, err := strconv.Atoi(prefix)
	if err != nil || n < 1 {
		return 1, arg
	}
	return n, rest
}
