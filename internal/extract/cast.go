package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/exstruct-io/exstruct/internal/structtree"
)

// castValue casts the textual content of a scalar field to its canonical
// type. String and binary fields pass through unchanged.
func castValue(s string, t structtree.DataType) (any, error) {
	switch t {
	case structtree.TypeString, structtree.TypeLargeBinary:
		return s, nil

	case structtree.TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", s, err)
		}
		return n, nil

	case structtree.TypeFloat:
		// Numbers arrive as "1 234,56": thousands separated by spaces,
		// decimal comma.
		normalized := strings.ReplaceAll(strings.ReplaceAll(s, ",", "."), " ", "")
		normalized = strings.ReplaceAll(normalized, " ", "")
		f, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return nil, fmt.Errorf("parse float %q: %w", s, err)
		}
		return f, nil

	case structtree.TypeBoolean:
		return strings.EqualFold(strings.TrimSpace(s), "true"), nil

	case structtree.TypeDate, structtree.TypeTimestamp:
		return castDate(s)

	default:
		return s, nil
	}
}

// castDate tries the flexible parser first and falls back to strict RFC 3339.
func castDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := dateparse.ParseAny(s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return ts, nil
}
