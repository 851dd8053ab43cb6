package model

// MultiplierTable is an immutable index over the multiplier codes of a
// contest. Build it once with NewMultiplierTable and pass it by reference.
type MultiplierTable struct {
	byAbbrev map[string]Multiplier
	byID     map[int64]Multiplier
	dx       Multiplier
	hasDX    bool
}

// NewMultiplierTable indexes mults by abbreviation and id. aliases maps
// alternate location codes (e.g. "SCLA" for "SCL") to a multiplier abbrev.
func NewMultiplierTable(mults []Multiplier, aliases map[string]string) *MultiplierTable {
	t := &MultiplierTable{
		byAbbrev: make(map[string]Multiplier, len(mults)+len(aliases)),
		byID:     make(map[int64]Multiplier, len(mults)),
	}
	for _, m := range mults {
		t.byAbbrev[NormalizeText(m.Abbrev)] = m
		t.byID[m.ID] = m
		if m.IsDX && !t.hasDX {
			t.dx, t.hasDX = m, true
		}
	}
	for alias, abbrev := range aliases {
		if m, ok := t.byAbbrev[NormalizeText(abbrev)]; ok {
			t.byAbbrev[NormalizeText(alias)] = m
		}
	}
	return t
}

// Lookup resolves a logged location code.
func (t *MultiplierTable) Lookup(code string) (Multiplier, bool) {
	if t == nil {
		return Multiplier{}, false
	}
	m, ok := t.byAbbrev[NormalizeText(code)]
	return m, ok
}

// ByID returns the multiplier with the given id.
func (t *MultiplierTable) ByID(id int64) (Multiplier, bool) {
	if t == nil {
		return Multiplier{}, false
	}
	m, ok := t.byID[id]
	return m, ok
}

// DX returns the catch-all DX multiplier, if the contest defines one.
func (t *MultiplierTable) DX() (Multiplier, bool) {
	if t == nil {
		return Multiplier{}, false
	}
	return t.dx, t.hasDX
}

// Abbrev returns the code for a multiplier id, or "" when unknown.
func (t *MultiplierTable) Abbrev(id int64) string {
	m, ok := t.ByID(id)
	if !ok {
		return ""
	}
	return m.Abbrev
}
