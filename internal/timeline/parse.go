package timeline

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// clockLayouts are tried in order before falling back to dateparse.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"15:04:05.999999999",
	"3:04:05 PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04PM",
	"3:04:05 pm",
	"3:04 pm",
}

// ParseDate resolves a tolerant date cell: Excel serial numbers, ISO dates,
// datetimes (the clock part is ignored) and anything dateparse understands.
// dayFirst resolves ambiguous numeric dates such as 03/04/2024.
func ParseDate(raw string, loc *time.Location, dayFirst bool) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return Date{}, false
	}
	if serial, ok := excelSerial(s); ok {
		if serial < 1 {
			return Date{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return Date{}, false
		}
		return DateOf(t), true
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := dateparse.ParseIn(s, loc, dateparse.PreferMonthFirst(!dayFirst))
	if err != nil {
		return Date{}, false
	}
	return DateOf(t), true
}

// minExcelSerial is the smallest plain number read as an Excel serial
// date (1927-05-18). Smaller integers are years, hours or noise.
const minExcelSerial = 10000

// ParseClock resolves a tolerant time-of-day cell into an offset from
// midnight. Excel day fractions (0.5 = 12:00) and full datetimes are
// accepted; for the latter only the clock is kept. A bare integer 0-23 is
// an hour; an integer serial date is midnight; other integers are rejected.
func ParseClock(raw string) (time.Duration, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "nat") {
		return 0, false
	}
	if isDigits(s) {
		n, err := strconv.Atoi(s)
		switch {
		case err != nil:
			return 0, false
		case n <= 23:
			return time.Duration(n) * time.Hour, true
		case n >= minExcelSerial:
			return 0, true
		}
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) || !strings.Contains(s, ".") {
			return 0, false
		}
		if f >= 1 && f < minExcelSerial {
			return 0, false
		}
		_, frac := math.Modf(f)
		d := time.Duration(math.Round(frac * float64(24*time.Hour/time.Second)))
		return d * time.Second, true
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clockOf(t), true
		}
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, false
	}
	return clockOf(t), true
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// excelSerial classifies plain numbers. ok reports that s is a number at
// all; serial is 0 when it is not a plausible Excel serial date. Four and
// eight digit integers are left to dateparse (YYYY, YYYYMMDD).
func excelSerial(s string) (serial float64, ok bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if isDigits(s) && (len(s) == 4 || len(s) == 8) {
		return 0, false
	}
	if f < minExcelSerial {
		return 0, true
	}
	return f, true
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}
