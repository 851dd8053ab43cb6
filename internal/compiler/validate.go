package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

// Validation error codes (E100-E199)
const (
	// Contest window and scoring (E101-E104)
	ErrContestNameEmpty = "E101" // name is required
	ErrContestWindow    = "E102" // end must follow start
	ErrNoPoints         = "E103" // at least one mode must score
	ErrUnknownMode      = "E104" // points for a mode the engine does not know

	// Multipliers (E110-E119)
	ErrNoMultipliers      = "E110" // at least one multiplier required
	ErrDuplicateAbbrev    = "E111" // abbreviations must be unique
	ErrMultipleDX         = "E112" // at most one DX multiplier
	ErrMissingDX          = "E113" // dx_multiplier set but no DX entry
	ErrDuplicateEntity    = "E114" // entity claimed by two multipliers
	ErrAliasTargetMissing = "E115" // alias points at an unknown abbreviation
	ErrAliasShadowsAbbrev = "E116" // alias hides a real abbreviation
)

// ValidationError represents a contest definition validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one definition.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the cross-field rules of a contest definition.
// Returns all errors found (does not fail-fast).
func Validate(def *model.ContestDefinition) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(def.Name) == "" {
		add("name", ErrContestNameEmpty, "name is required and must be non-empty")
	}
	if !def.End.After(def.Start) {
		add("end", ErrContestWindow, "end %s must be after start %s",
			def.End.Format("2006-01-02T15:04Z"), def.Start.Format("2006-01-02T15:04Z"))
	}

	if len(def.Points) == 0 {
		add("points", ErrNoPoints, "at least one mode must have a point value")
	}
	for mode := range def.Points {
		switch mode {
		case model.ModeCW, model.ModePH, model.ModeFM, model.ModeRY:
		default:
			add("points."+string(mode), ErrUnknownMode, "unknown mode %q", mode)
		}
	}

	if len(def.Multipliers) == 0 {
		add("multipliers", ErrNoMultipliers, "at least one multiplier is required")
	}
	abbrevs := make(map[string]bool, len(def.Multipliers))
	entities := make(map[int64]string)
	dxCount := 0
	for i, m := range def.Multipliers {
		field := fmt.Sprintf("multipliers[%d]", i)
		key := strings.ToUpper(m.Abbrev)
		if abbrevs[key] {
			add(field+".abbrev", ErrDuplicateAbbrev, "duplicate abbreviation: %q", m.Abbrev)
		}
		abbrevs[key] = true

		if m.IsDX {
			dxCount++
			if dxCount == 2 {
				add(field+".dx", ErrMultipleDX, "only one multiplier may be marked dx")
			}
		}
		if m.EntityID > 0 {
			if prev, ok := entities[m.EntityID]; ok {
				add(field+".entity", ErrDuplicateEntity, "entity %d already used by %q", m.EntityID, prev)
			} else {
				entities[m.EntityID] = m.Abbrev
			}
		}
	}
	if def.DXMultiplier && dxCount == 0 {
		add("dx_multiplier", ErrMissingDX, "dx_multiplier requires a multiplier marked dx")
	}

	for alias, target := range def.Aliases {
		field := "aliases." + alias
		if abbrevs[strings.ToUpper(alias)] {
			add(field, ErrAliasShadowsAbbrev, "alias %q shadows a multiplier abbreviation", alias)
		}
		if !abbrevs[strings.ToUpper(target)] {
			add(field, ErrAliasTargetMissing, "alias target %q is not a multiplier", target)
		}
	}

	// Map iteration must not leak into output order.
	slices.SortStableFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })
	return errs
}
