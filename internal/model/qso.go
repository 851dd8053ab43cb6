package model

import (
	"fmt"
	"strings"
	"time"
)

// Band is an amateur band designator.
type Band string

const (
	BandUnknown Band = ""
	Band160m    Band = "160m"
	Band80m     Band = "80m"
	Band40m     Band = "40m"
	Band20m     Band = "20m"
	Band15m     Band = "15m"
	Band10m     Band = "10m"
	Band6m      Band = "6m"
	Band2m      Band = "2m"
	Band222     Band = "222"
	Band432     Band = "432"
)

type bandEdge struct {
	band     Band
	low, top int // kHz inclusive
}

var bandEdges = []bandEdge{
	{Band160m, 1800, 2000},
	{Band80m, 3500, 4000},
	{Band40m, 7000, 7300},
	{Band20m, 14000, 14350},
	{Band15m, 21000, 21450},
	{Band10m, 28000, 29700},
	{Band6m, 50000, 54000},
	{Band2m, 144000, 148000},
	{Band222, 222000, 225000},
	{Band432, 420000, 450000},
}

// cabrilloBands maps the short band codes Cabrillo allows in place of a frequency.
var cabrilloBands = map[int]Band{
	50:  Band6m,
	144: Band2m,
	222: Band222,
	432: Band432,
}

// BandFromFrequency derives the band from a frequency in kHz.
func BandFromFrequency(khz int) Band {
	for _, e := range bandEdges {
		if khz >= e.low && khz <= e.top {
			return e.band
		}
	}
	if b, ok := cabrilloBands[khz]; ok {
		return b
	}
	return BandUnknown
}

// Mode is a normalized transmission mode.
type Mode string

const (
	ModeUnknown Mode = ""
	ModePH      Mode = "PH"
	ModeCW      Mode = "CW"
	ModeFM      Mode = "FM"
	ModeRY      Mode = "RY"
)

// ParseMode normalizes a logged mode string.
func ParseMode(s string) Mode {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PH", "SSB", "USB", "LSB", "AM":
		return ModePH
	case "CW":
		return ModeCW
	case "FM":
		return ModeFM
	case "RY", "RTTY", "DG", "DIG", "FSK", "PSK":
		return ModeRY
	}
	return ModeUnknown
}

// Direction selects one side of a QSO's exchange.
type Direction int

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Sent {
		return "sent"
	}
	return "received"
}

// UnknownSerial is the serial sentinel meaning "not copied".
const UnknownSerial = 9999

// Exchange is one side of the information passed during a contact.
type Exchange struct {
	CallID   int64  // callsign registry id, 0 when unknown
	Callsign string // as logged, normalized
	Serial   int    // 0 when not recorded
	Name     string
	Location string // location code as logged
	MultID   int64  // resolved multiplier, 0 when unresolved
	EntityID int64  // resolved DXCC entity, 0 when unresolved
}

// QSO is one claimed contact as recorded by one participant.
type QSO struct {
	ID        int64
	LogID     int64
	Frequency int // kHz
	Band      Band
	Mode      Mode
	Time      time.Time
	Sent      Exchange
	Recvd     Exchange

	MatchID    int64 // 0 when unmatched
	MatchType  MatchType
	Comment    string
	JudgedBand Band
	JudgedMode Mode
	Score      int
}

// Exchange returns the sent or received side.
func (q *QSO) Exchange(d Direction) *Exchange {
	if d == Sent {
		return &q.Sent
	}
	return &q.Recvd
}

// Line renders the QSO in the fixed-column text used for operator review and
// as the basis of the pair-decision cache key.
func (q *QSO) Line() string {
	return fmt.Sprintf("%5d %-2s %s %-10s %4d %-4s %-10s %4d %-4s",
		q.Frequency, q.Mode, q.Time.UTC().Format("2006-01-02 1504"),
		q.Sent.Callsign, q.Sent.Serial, q.Sent.Location,
		q.Recvd.Callsign, q.Recvd.Serial, q.Recvd.Location)
}
