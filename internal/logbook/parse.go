package logbook

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseDistance coerces raw input to kilometers. It never fails: nil, empty
// and unparsable values become 0. Units and labels in strings are dropped.
func ParseDistance(v any) float64 {
	return parseTolerant(v, false)
}

// ParseElevation is ParseDistance that keeps a minus sign in strings.
func ParseElevation(v any) float64 {
	return parseTolerant(v, true)
}

func ParseDuration(v any) float64 {
	return parseTolerant(v, false)
}

func parseTolerant(v any, signed bool) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return parseNumericText(x, signed)
	}
	n, ok := asNumber(v)
	if !ok {
		return 0
	}
	return finite(n)
}

func parseNumericText(s string, signed bool) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || (signed && r == '-') {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		n = leadingFloat(cleaned)
	}
	return finite(n)
}

// leadingFloat parses the longest numeric prefix, the way "1.2.3" still reads as 1.2.
func leadingFloat(s string) float64 {
	for end := len(s); end > 0; end-- {
		if n, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return n
		}
	}
	return 0
}

func finite(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// asNumber reports whether v is a Go numeric kind and returns it as float64.
func asNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case Distance:
		return float64(x), true
	case Elevation:
		return float64(x), true
	case Duration:
		return float64(x), true
	case json.Number:
		n, err := x.Float64()
		return n, err == nil
	}
	return 0, false
}
