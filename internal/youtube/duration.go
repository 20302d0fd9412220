package youtube

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidDuration is returned for strings that are not ISO-8601 durations
var ErrInvalidDuration = errors.New("invalid ISO-8601 duration")

var unitSeconds = map[byte]float64{
	'W': 7 * 24 * 3600,
	'D': 24 * 3600,
	'H': 3600,
	'M': 60,
	'S': 1,
}

// ParseDuration converts an ISO-8601 duration such as PT1H2M3.5S into whole
// seconds, truncating any fraction. Years and months are rejected because
// their length in seconds is not fixed.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var (
		total      float64
		inTime     bool
		components int
		num        strings.Builder
		lastUnit   = -1
	)

	// designator order within each part; M means months before T and minutes after
	dateOrder := "WD"
	timeOrder := "HMS"

	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 'T':
			if inTime || num.Len() > 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			inTime = true
			lastUnit = -1
			if i == len(s)-1 {
				return 0, fmt.Errorf("%w: dangling T in %q", ErrInvalidDuration, s)
			}
		case (c >= '0' && c <= '9') || c == '.' || c == ',':
			if c == ',' {
				c = '.'
			}
			num.WriteByte(c)
		default:
			order := dateOrder
			if inTime {
				order = timeOrder
			}
			pos := strings.IndexByte(order, c)
			if pos < 0 || pos <= lastUnit || num.Len() == 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			v, err := strconv.ParseFloat(num.String(), 64)
			if err != nil || v < 0 {
				return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
			// only the seconds component may carry a fraction
			if c != 'S' && v != math.Trunc(v) {
				return 0, fmt.Errorf("%w: fractional %c in %q", ErrInvalidDuration, c, s)
			}
			total += v * unitSeconds[c]
			lastUnit = pos
			components++
			num.Reset()
		}
	}

	if num.Len() > 0 || components == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	if total > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidDuration, s)
	}
	return int(total), nil
}
