package signup

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expiration is a card expiration normalized to a zero-padded month and a
// four-digit year.
type Expiration struct {
	Month string
	Year  int
}

// Date returns the synthetic first-of-month date stored on the billing row.
// Month must be the canonical zero-padded value produced by
// NormalizeExpiration; anything else yields the zero time.
func (e Expiration) Date() time.Time {
	month, err := strconv.Atoi(e.Month)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}
	}
	return time.Date(e.Year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// expirationLayouts are tried in order. Checkout clients have historically
// sent anything from "MM/YY" to a full serialized Date, so the list is
// permissive.
var expirationLayouts = []string{
	"2006-01",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Mon Jan 02 2006 15:04:05",
	"Mon Jan 2 2006 15:04:05",
}

// NormalizeExpiration parses a client-supplied expiration value into a
// canonical (month, year) pair. January is "01", December is "12".
// Normalizing an already-canonical "YYYY-MM" value round-trips to itself.
func NormalizeExpiration(raw string) (Expiration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Expiration{}, fmt.Errorf("empty expiration date")
	}

	// JavaScript Date serializations carry a "GMT+0000 (Zone Name)" tail that
	// no Go layout matches; strip it and parse the prefix.
	if idx := strings.Index(value, " GMT"); idx > 0 {
		value = value[:idx]
	}

	// "MM/YY" and "MM/YYYY" card forms. time.Parse cannot distinguish a
	// two-digit year from a truncated four-digit one, so these are handled
	// by hand.
	if parts := strings.Split(value, "/"); len(parts) == 2 {
		month, merr := strconv.Atoi(strings.TrimSpace(parts[0]))
		year, yerr := strconv.Atoi(strings.TrimSpace(parts[1]))
		if merr != nil || yerr != nil || month < 1 || month > 12 || year < 0 {
			return Expiration{}, fmt.Errorf("unrecognized expiration date %q", raw)
		}
		if year < 100 {
			year += 2000
		}
		return Expiration{Month: fmt.Sprintf("%02d", month), Year: year}, nil
	}

	for _, layout := range expirationLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return Expiration{
			Month: fmt.Sprintf("%02d", int(parsed.Month())),
			Year:  parsed.Year(),
		}, nil
	}

	return Expiration{}, fmt.Errorf("unrecognized expiration date %q", raw)
}
