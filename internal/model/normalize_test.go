package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCall(t *testing.T) {
	assert.Equal(t, "K6ABC", NormalizeCall(" k6abc "))
	assert.Equal(t, "W60RG", NormalizeCall("w6Ørg"))
	assert.Equal(t, "N6XY/M", NormalizeCall("n6 xy/m"))
}

func TestBaseCall(t *testing.T) {
	cases := map[string]string{
		"K6ABC":        "K6ABC",
		"K6ABC/P":      "K6ABC",
		"KH6/K6ABC":    "K6ABC",
		"KH6/K6ABC/M":  "K6ABC",
		"VE3/W1AW/QRP": "W1AW",
		"W6YX/6":       "W6YX",
		"XX/YY":        "XX/YY",
	}
	for in, want := range cases {
		assert.Equal(t, want, BaseCall(in), "input %q", in)
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "JOSÉ", NormalizeText("  José "))
}

func TestStringSpace_Intern(t *testing.T) {
	sp := NewStringSpace()
	a := sp.Intern("K6ABC")
	b := sp.Intern(string([]byte("K6ABC")))
	assert.Equal(t, a, b)
	assert.Equal(t, 1, sp.Len())
	assert.Equal(t, "", sp.Intern(""))
	assert.Equal(t, 1, sp.Len())

	var nilSpace *StringSpace
	assert.Equal(t, "x", nilSpace.Intern("x"))
}

func TestMultiplierTable(t *testing.T) {
	tbl := NewMultiplierTable([]Multiplier{
		{ID: 1, Abbrev: "SCL", Name: "Santa Clara"},
		{ID: 2, Abbrev: "ON", Name: "Ontario"},
		{ID: 3, Abbrev: "DX", Name: "DX", IsDX: true},
	}, map[string]string{"SCLA": "SCL", "BOGUS": "NOPE"})

	m, ok := tbl.Lookup("scla")
	assert.True(t, ok)
	assert.Equal(t, int64(1), m.ID)

	_, ok = tbl.Lookup("BOGUS")
	assert.False(t, ok)

	dx, ok := tbl.DX()
	assert.True(t, ok)
	assert.Equal(t, int64(3), dx.ID)
	assert.Equal(t, "ON", tbl.Abbrev(2))
	assert.Equal(t, "", tbl.Abbrev(99))
}

func TestValidCall(t *testing.T) {
	tests := []struct {
		call string
		want bool
	}{
		{"K6ABC", true},
		{"kh6/k6abc/p", true},
		{"CQ", false},
		{"ABCDEF", false},
		{"12345", false},
	}
	for _, tt := range tests {
		t.Run(tt.call, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidCall(tt.call))
		})
	}
}
