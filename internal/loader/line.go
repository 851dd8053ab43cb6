package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Line is one parsed QSO line.
type Line struct {
	Frequency     int
	Mode          model.Mode
	Time          time.Time
	SentSerial    int
	SentLocation  string
	SentName      string
	RecvdCall     string
	Registered    bool
	RecvdSerial   int
	RecvdLocation string
	RecvdName     string
}

const lineFields = 8

// ParseLine parses a compact QSO line:
//
//	FREQ MODE TIME SENT_SERIAL SENT_LOC RECVD_CALL RECVD_SERIAL RECVD_LOC [sname=NAME] [rname=NAME]
//
// TIME is either HH:MM on the date of start, or 2006-01-02T15:04 (UTC).
// A RECVD_CALL prefixed with "~" is stored without a callsign registry
// id. A serial of "?" is the unknown-serial sentinel. A location of "-"
// is empty.
func ParseLine(line string, start time.Time) (Line, error) {
	fields := strings.Fields(line)
	if len(fields) < lineFields {
		return Line{}, fmt.Errorf("parse line %q: want at least %d fields, got %d", line, lineFields, len(fields))
	}

	var (
		l   Line
		err error
	)
	if l.Frequency, err = strconv.Atoi(fields[0]); err != nil || l.Frequency <= 0 {
		return Line{}, fmt.Errorf("parse line %q: bad frequency %q", line, fields[0])
	}
	if l.Mode = model.ParseMode(fields[1]); l.Mode == model.ModeUnknown {
		return Line{}, fmt.Errorf("parse line %q: bad mode %q", line, fields[1])
	}
	if l.Time, err = parseTime(fields[2], start); err != nil {
		return Line{}, fmt.Errorf("parse line %q: %w", line, err)
	}
	if l.SentSerial, err = parseSerial(fields[3]); err != nil {
		return Line{}, fmt.Errorf("parse line %q: sent %w", line, err)
	}
	l.SentLocation = parseLocation(fields[4])

	call := fields[5]
	l.Registered = !strings.HasPrefix(call, "~")
	l.RecvdCall = model.NormalizeCall(strings.TrimPrefix(call, "~"))
	if l.RecvdCall == "" {
		return Line{}, fmt.Errorf("parse line %q: empty received call", line)
	}
	if l.RecvdSerial, err = parseSerial(fields[6]); err != nil {
		return Line{}, fmt.Errorf("parse line %q: received %w", line, err)
	}
	l.RecvdLocation = parseLocation(fields[7])

	for _, opt := range fields[lineFields:] {
		key, value, ok := strings.Cut(opt, "=")
		if !ok {
			return Line{}, fmt.Errorf("parse line %q: bad option %q", line, opt)
		}
		switch strings.ToLower(key) {
		case "sname":
			l.SentName = model.NormalizeText(value)
		case "rname":
			l.RecvdName = model.NormalizeText(value)
		default:
			return Line{}, fmt.Errorf("parse line %q: unknown option %q", line, key)
		}
	}
	return l, nil
}

func parseTime(s string, start time.Time) (time.Time, error) {
	if strings.Contains(s, "T") {
		t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
		}
		return t, nil
	}
	hm, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q: %w", s, err)
	}
	day := start.UTC().Truncate(24 * time.Hour)
	return day.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute), nil
}

func parseSerial(s string) (int, error) {
	if s == "?" {
		return model.UnknownSerial, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad serial %q", s)
	}
	return n, nil
}

func parseLocation(s string) string {
	if s == "-" {
		return ""
	}
	return model.NormalizeText(s)
}
