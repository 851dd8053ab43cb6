package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var contestStart = time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC)

// fixture is a two-log contest: x is W6YX, y is K6ABC.
type fixture struct {
	t       *testing.T
	s       *Store
	contest int64
	x, y    int64
	calls   map[string]int64
	logCall map[int64]string
}

func newFixture(t *testing.T, s *Store) *fixture {
	t.Helper()
	ctx := context.Background()
	cid, err := s.CreateContest(ctx, model.Contest{
		Name: "CQP", Year: 2024, Start: contestStart, End: contestStart.Add(30 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateContest() failed: %v", err)
	}
	f := &fixture{t: t, s: s, contest: cid, calls: map[string]int64{}, logCall: map[int64]string{}}
	f.x = f.log("W6YX")
	f.y = f.log("K6ABC")
	return f
}

func (f *fixture) call(basecall string) int64 {
	f.t.Helper()
	if id, ok := f.calls[basecall]; ok {
		return id
	}
	id, err := f.s.EnsureCallsign(context.Background(), f.contest, basecall)
	if err != nil {
		f.t.Fatalf("EnsureCallsign(%s) failed: %v", basecall, err)
	}
	f.calls[basecall] = id
	return id
}

func (f *fixture) log(callsign string) int64 {
	f.t.Helper()
	id, err := f.s.InsertLog(context.Background(), model.Log{
		ContestID: f.contest, Callsign: callsign, CallID: f.call(callsign),
	})
	if err != nil {
		f.t.Fatalf("InsertLog(%s) failed: %v", callsign, err)
	}
	f.logCall[id] = callsign
	return id
}

// qso adds a 40m CW contact at 01:00 from logID to recvdCall.
func (f *fixture) qso(logID int64, sentCall string, sentSerial int, recvdCall string, recvdSerial int) int64 {
	return f.qsoAt(logID, sentCall, sentSerial, recvdCall, recvdSerial, contestStart.Add(time.Hour))
}

func (f *fixture) qsoAt(logID int64, sentCall string, sentSerial int, recvdCall string, recvdSerial int, at time.Time) int64 {
	f.t.Helper()
	id, err := f.s.InsertQSO(context.Background(), model.QSO{
		LogID: logID, Frequency: 7025, Band: model.Band40m, Mode: model.ModeCW, Time: at,
		Sent:  model.Exchange{CallID: f.call(sentCall), Callsign: sentCall, Serial: sentSerial, Location: "SCLA"},
		Recvd: model.Exchange{CallID: f.call(recvdCall), Callsign: recvdCall, Serial: recvdSerial, Location: "ALAM"},
	})
	if err != nil {
		f.t.Fatalf("InsertQSO() failed: %v", err)
	}
	return id
}
