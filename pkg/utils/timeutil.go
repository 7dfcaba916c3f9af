package utils

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// FormatClockIST formats a time.Time to "15:04:05 IST".
func FormatClockIST(t time.Time) string {
	return t.In(IST).Format("15:04:05 IST")
}

// NSE trading holidays for 2026 only. Dates in other years are checked
// against weekends alone, so the table must be replaced each calendar year.
var nseHolidays2026 = map[string]string{
	"2026-01-26": "Republic Day",
	"2026-02-17": "Mahashivratri",
	"2026-03-10": "Holi",
	"2026-03-30": "Id-ul-Fitr (Ramadan)",
	"2026-04-02": "Ram Navami",
	"2026-04-03": "Good Friday",
	"2026-04-14": "Dr. Ambedkar Jayanti",
	"2026-05-01": "Maharashtra Day",
	"2026-05-25": "Buddha Purnima",
	"2026-06-05": "Id-ul-Zuha (Bakri Id)",
	"2026-07-06": "Muharram",
	"2026-08-15": "Independence Day",
	"2026-08-18": "Parsi New Year",
	"2026-09-04": "Milad-un-Nabi",
	"2026-10-02": "Mahatma Gandhi Jayanti",
	"2026-10-20": "Dussehra",
	"2026-11-09": "Diwali (Laxmi Pujan)",
	"2026-11-10": "Diwali (Balipratipada)",
	"2026-11-30": "Guru Nanak Jayanti",
	"2026-12-25": "Christmas",
}

// MarketStatus returns the NSE session label for the current time.
func MarketStatus() string {
	return MarketStatusAt(NowIST())
}

// MarketStatusAt returns the NSE session label at t. Pre-open runs from
// 9:00 to 9:15 IST and the regular session until 15:30 IST.
func MarketStatusAt(t time.Time) string {
	t = t.In(IST)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := nseHolidays2026[t.Format("2006-01-02")]; ok {
		return "CLOSED (" + holiday + ")"
	}

	at := func(h, m int) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), h, m, 0, 0, IST)
	}

	switch {
	case t.Before(at(9, 0)):
		return "PRE-MARKET"
	case t.Before(at(9, 15)):
		return "PRE-OPEN SESSION"
	case !t.After(at(15, 30)):
		return "OPEN"
	default:
		return "CLOSED"
	}
}
