package smpp

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidScheduleTime is returned for schedule_delivery_time values that
// are not in the YYMMDDhhmmsstnnp format.
var ErrInvalidScheduleTime = errors.New("invalid schedule time")

const scheduleTimeLength = 16

// ParseScheduleTime resolves a schedule_delivery_time field to an instant.
// An empty value means now. A value ending in 'R' is a relative duration
// added to now; otherwise it is an absolute time whose last three characters
// give the UTC offset in quarter hours.
func ParseScheduleTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	if len(s) != scheduleTimeLength {
		return time.Time{}, fmt.Errorf("%w: length %d", ErrInvalidScheduleTime, len(s))
	}

	var f [7]int
	for i := range f {
		n, err := digits(s[i*2 : i*2+2])
		if err != nil {
			return time.Time{}, err
		}
		f[i] = n
	}
	tenths, err := digits(s[12:13])
	if err != nil {
		return time.Time{}, err
	}
	year, month, day, hour, minute, second, quarters := f[0], f[1], f[2], f[3], f[4], f[5], f[6]

	switch s[15] {
	case 'R':
		d := time.Duration(year)*365*24*time.Hour +
			time.Duration(month)*30*24*time.Hour +
			time.Duration(day)*24*time.Hour +
			time.Duration(hour)*time.Hour +
			time.Duration(minute)*time.Minute +
			time.Duration(second)*time.Second
		return now.Add(d), nil

	case '+', '-':
		offset := quarters * 15 * 60
		if s[15] == '-' {
			offset = -offset
		}
		loc := time.FixedZone("", offset)
		t := time.Date(2000+year, time.Month(month), day, hour, minute, second, tenths*int(100*time.Millisecond), loc)
		if t.Month() != time.Month(month) || t.Day() != day || t.Hour() != hour ||
			t.Minute() != minute || t.Second() != second {
			return time.Time{}, fmt.Errorf("%w: %q out of range", ErrInvalidScheduleTime, s)
		}
		return t, nil

	default:
		return time.Time{}, fmt.Errorf("%w: unknown marker %q", ErrInvalidScheduleTime, s[15])
	}
}

// FormatAbsoluteTime renders t as an absolute YYMMDDhhmmsstnnp value.
func FormatAbsoluteTime(t time.Time) string {
	_, offset := t.Zone()
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%s%d%02d%c",
		t.Format("060102150405"), t.Nanosecond()/int(100*time.Millisecond), offset/(15*60), sign)
}

// FormatRelativeTime renders d as a relative YYMMDDhhmmss000R value using
// only the day and smaller fields.
func FormatRelativeTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)
	return fmt.Sprintf("0000%02d%02d%02d%02d000R", days%100, hours, minutes, seconds)
}

func digits(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: non-digit %q", ErrInvalidScheduleTime, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidScheduleTime, err)
	}
	return n, nil
}
