// Package loader populates a record store with a contest, its multiplier
// codes, DXCC entities, submitted logs and their QSO lines.
//
// Log text parsing is out of scope for the adjudicator; the loader accepts
// an already-normalized compact line per QSO (see ParseLine) so that test
// fixtures, scenarios and the load command all share one path into the
// store.
package loader

import (
	"context"
	"fmt"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Store is the subset of the record store the loader writes to.
type Store interface {
	CreateContest(ctx context.Context, c model.Contest) (int64, error)
	InsertMultiplier(ctx context.Context, contestID int64, m model.Multiplier) (int64, error)
	InsertEntity(ctx context.Context, e model.Entity) error
	EnsureCallsign(ctx context.Context, contestID int64, basecall string) (int64, error)
	SetCallsignFlags(ctx context.Context, id int64, logRecvd, validCall bool) error
	InsertLog(ctx context.Context, l model.Log) (int64, error)
	InsertQSO(ctx context.Context, q model.QSO) (int64, error)
}

// LogInfo is the header of one submitted log.
type LogInfo struct {
	Callsign string `yaml:"callsign" validate:"required"`
	Location string `yaml:"location"`
	OpClass  string `yaml:"opclass,omitempty"`
	Power    string `yaml:"power,omitempty"`
}

type callFlags struct {
	logRecvd bool
	valid    bool
}

// Contest loads records into one contest. It caches registry ids so
// repeated callsigns cost one store round trip.
type Contest struct {
	store Store
	ID    int64
	Def   *model.ContestDefinition
	Mults *model.MultiplierTable

	calls   map[string]int64
	flags   map[int64]*callFlags
	logs    map[string]int64
	logInfo map[int64]model.Log
}

// NewContest creates the contest described by def, with its multiplier
// codes, and returns a loader bound to it.
func NewContest(ctx context.Context, st Store, def *model.ContestDefinition) (*Contest, error) {
	if def == nil {
		return nil, fmt.Errorf("new contest: nil definition")
	}
	id, err := st.CreateContest(ctx, model.Contest{
		Name: def.Name, Year: def.Year, Start: def.Start.UTC(), End: def.End.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("new contest: %w", err)
	}

	mults := make([]model.Multiplier, 0, len(def.Multipliers))
	for _, m := range def.Multipliers {
		mid, err := st.InsertMultiplier(ctx, id, m)
		if err != nil {
			return nil, fmt.Errorf("new contest: multiplier %s: %w", m.Abbrev, err)
		}
		m.ID = mid
		mults = append(mults, m)
	}

	return &Contest{
		store:   st,
		ID:      id,
		Def:     def,
		Mults:   model.NewMultiplierTable(mults, def.Aliases),
		calls:   make(map[string]int64),
		flags:   make(map[int64]*callFlags),
		logs:    make(map[string]int64),
		logInfo: make(map[int64]model.Log),
	}, nil
}

// AddEntity registers a DXCC entity.
func (c *Contest) AddEntity(ctx context.Context, e model.Entity) error {
	if err := c.store.InsertEntity(ctx, e); err != nil {
		return fmt.Errorf("add entity %s: %w", e.Name, err)
	}
	return nil
}

// Call returns the registry id for the base call of call, registering it
// on first use. New entries are valid when the base call has callsign
// shape.
func (c *Contest) Call(ctx context.Context, call string) (int64, error) {
	base := model.BaseCall(call)
	if id, ok := c.calls[base]; ok {
		return id, nil
	}
	id, err := c.store.EnsureCallsign(ctx, c.ID, base)
	if err != nil {
		return 0, fmt.Errorf("register %s: %w", base, err)
	}
	f := &callFlags{valid: model.ValidCall(base)}
	if err := c.store.SetCallsignFlags(ctx, id, f.logRecvd, f.valid); err != nil {
		return 0, fmt.Errorf("register %s: %w", base, err)
	}
	c.calls[base] = id
	c.flags[id] = f
	return id, nil
}

// SetValid overrides the validity flag of a registered callsign.
func (c *Contest) SetValid(ctx context.Context, call string, valid bool) error {
	id, err := c.Call(ctx, call)
	if err != nil {
		return err
	}
	f := c.flags[id]
	f.valid = valid
	if err := c.store.SetCallsignFlags(ctx, id, f.logRecvd, f.valid); err != nil {
		return fmt.Errorf("set valid %s: %w", call, err)
	}
	return nil
}

// AddLog registers a submitted log and returns its id. Adding a second log
// for the same callsign is an error.
func (c *Contest) AddLog(ctx context.Context, info LogInfo) (int64, error) {
	call := model.NormalizeCall(info.Callsign)
	if call == "" {
		return 0, fmt.Errorf("add log: empty callsign")
	}
	if _, dup := c.logs[call]; dup {
		return 0, fmt.Errorf("add log %s: already loaded", call)
	}
	callID, err := c.Call(ctx, call)
	if err != nil {
		return 0, fmt.Errorf("add log %s: %w", call, err)
	}
	l := model.Log{
		ContestID: c.ID,
		Callsign:  call,
		CallID:    callID,
		OpClass:   model.NormalizeText(info.OpClass),
		Power:     model.NormalizeText(info.Power),
		Location:  model.NormalizeText(info.Location),
	}
	if m, ok := c.Mults.Lookup(l.Location); ok {
		l.MultID = m.ID
	}
	id, err := c.store.InsertLog(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("add log %s: %w", call, err)
	}
	l.ID = id
	c.flags[callID].logRecvd = true
	c.logs[call] = id
	c.logInfo[id] = l
	return id, nil
}

// LogID returns the id of the log submitted by call.
func (c *Contest) LogID(call string) (int64, bool) {
	id, ok := c.logs[model.NormalizeCall(call)]
	return id, ok
}

// AddQSO parses line and stores it as a contact in log logID.
func (c *Contest) AddQSO(ctx context.Context, logID int64, line string) (int64, error) {
	l, ok := c.logInfo[logID]
	if !ok {
		return 0, fmt.Errorf("add qso: unknown log %d", logID)
	}
	parsed, err := ParseLine(line, c.Def.Start)
	if err != nil {
		return 0, fmt.Errorf("add qso to %s: %w", l.Callsign, err)
	}
	q, err := c.qso(ctx, l, parsed)
	if err != nil {
		return 0, fmt.Errorf("add qso to %s: %w", l.Callsign, err)
	}
	id, err := c.store.InsertQSO(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("add qso to %s: %w", l.Callsign, err)
	}
	return id, nil
}

func (c *Contest) qso(ctx context.Context, l model.Log, p Line) (model.QSO, error) {
	q := model.QSO{
		LogID:     l.ID,
		Frequency: p.Frequency,
		Band:      model.BandFromFrequency(p.Frequency),
		Mode:      p.Mode,
		Time:      p.Time,
		Sent: model.Exchange{
			CallID:   l.CallID,
			Callsign: l.Callsign,
			Serial:   p.SentSerial,
			Name:     p.SentName,
			Location: p.SentLocation,
		},
		Recvd: model.Exchange{
			Callsign: p.RecvdCall,
			Serial:   p.RecvdSerial,
			Name:     p.RecvdName,
			Location: p.RecvdLocation,
		},
	}
	if m, ok := c.Mults.Lookup(p.SentLocation); ok {
		q.Sent.MultID = m.ID
	}
	if m, ok := c.Mults.Lookup(p.RecvdLocation); ok {
		q.Recvd.MultID = m.ID
	}
	if p.Registered {
		id, err := c.Call(ctx, p.RecvdCall)
		if err != nil {
			return model.QSO{}, err
		}
		q.Recvd.CallID = id
	}
	return q, nil
}
