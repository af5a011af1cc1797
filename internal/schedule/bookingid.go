package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

var bookingIDPattern = regexp.MustCompile(`booking-(\d+)`)

// NextBookingID returns the lowest unused sequential booking identifier
// across all overrides, formatted as booking-NNN (zero-padded to three
// digits, growing naturally past 999). Numbers freed by cancellation
// are reused, keeping the sequence gapless.
func NextBookingID(overrides map[string]Override) string {
	used := make(map[int]bool, len(overrides))
	for _, o := range overrides {
		m := bookingIDPattern.FindStringSubmatch(o.BookingID)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			used[n] = true
		}
	}

	next := 1
	for used[next] {
		next++
	}
	return FormatBookingID(next)
}

// FormatBookingID renders a booking number in the canonical booking-NNN form.
func FormatBookingID(n int) string {
	return fmt.Sprintf("booking-%03d", n)
}
