package format

import "time"

// DateLayout is the day-first layout used in detail tables.
const DateLayout = "02/01/2006"

// Date renders t as dd/mm/yyyy. A zero time renders as an empty cell.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
