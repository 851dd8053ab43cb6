// Package compiler turns a contest definition written in CUE into a
// model.ContestDefinition.
//
// A definition file declares a single top-level contest struct:
//
//	contest: {
//		name:          "NA Sprint"
//		year:          2024
//		start:         "2024-03-24T00:00:00Z"
//		end:           "2024-03-24T04:00:00Z"
//		points:        {CW: 3, PH: 2}
//		dx_multiplier: true
//		multipliers: [
//			{abbrev: "SCLA", name: "Santa Clara"},
//			{abbrev: "DX", name: "DX", dx: true},
//		]
//		aliases: {SCL: "SCLA"}
//	}
//
// The file is unified with an embedded #Contest schema, so unknown fields,
// wrong types and out-of-range values are reported with CUE positions.
// Cross-field rules the schema cannot express are checked by Validate.
package compiler

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/tepperly/nasprint-sub000/internal/model"
)

//go:embed schema.cue
var schemaSource []byte

// contestSource mirrors the #Contest schema for decoding.
type contestSource struct {
	Name         string             `json:"name"`
	Year         int                `json:"year"`
	Start        string             `json:"start"`
	End          string             `json:"end"`
	Points       map[string]int     `json:"points"`
	DXMultiplier bool               `json:"dx_multiplier"`
	Multipliers  []multiplierSource `json:"multipliers"`
	Aliases      map[string]string  `json:"aliases"`
}

type multiplierSource struct {
	Abbrev string `json:"abbrev"`
	Name   string `json:"name"`
	DX     bool   `json:"dx"`
	Entity int64  `json:"entity"`
}

// CompileFile reads and compiles a contest definition file.
func CompileFile(path string) (*model.ContestDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contest definition: %w", err)
	}
	return CompileContest(data, path)
}

// CompileContest compiles CUE source into a contest definition. filename
// is used for error positions only. Schema violations are returned as a
// *CompileError; cross-field problems as ValidationErrors.
func CompileContest(src []byte, filename string) (*model.ContestDefinition, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("contest schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.LookupPath(cue.ParsePath("contest")).Exists() {
		return nil, &CompileError{Field: "contest", Message: "contest is required", Pos: v.Pos()}
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw contestSource
	if err := unified.LookupPath(cue.ParsePath("contest")).Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	def, err := raw.definition()
	if err != nil {
		return nil, err
	}
	if errs := Validate(def); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return def, nil
}

func (c *contestSource) definition() (*model.ContestDefinition, error) {
	start, err := time.Parse(time.RFC3339, c.Start)
	if err != nil {
		return nil, &CompileError{Field: "contest.start", Message: err.Error()}
	}
	end, err := time.Parse(time.RFC3339, c.End)
	if err != nil {
		return nil, &CompileError{Field: "contest.end", Message: err.Error()}
	}

	def := &model.ContestDefinition{
		Name:         c.Name,
		Year:         c.Year,
		Start:        start.UTC(),
		End:          end.UTC(),
		Points:       make(map[model.Mode]int, len(c.Points)),
		DXMultiplier: c.DXMultiplier,
		Aliases:      make(map[string]string, len(c.Aliases)),
	}
	for mode, pts := range c.Points {
		def.Points[model.Mode(mode)] = pts
	}
	for _, m := range c.Multipliers {
		def.Multipliers = append(def.Multipliers, model.Multiplier{
			Abbrev:   m.Abbrev,
			Name:     m.Name,
			EntityID: m.Entity,
			IsDX:     m.DX,
		})
	}
	for alias, target := range c.Aliases {
		def.Aliases[strings.ToUpper(alias)] = strings.ToUpper(target)
	}
	return def, nil
}
