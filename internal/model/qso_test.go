package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandFromFrequency(t *testing.T) {
	cases := map[int]Band{
		1830:   Band160m,
		3550:   Band80m,
		7025:   Band40m,
		14250:  Band20m,
		21025:  Band15m,
		28400:  Band10m,
		50125:  Band6m,
		50:     Band6m,
		144:    Band2m,
		146520: Band2m,
		5000:   BandUnknown,
	}
	for khz, want := range cases {
		assert.Equal(t, want, BandFromFrequency(khz), "freq %d", khz)
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModePH, ParseMode("ssb"))
	assert.Equal(t, ModePH, ParseMode("PH"))
	assert.Equal(t, ModeCW, ParseMode(" cw "))
	assert.Equal(t, ModeRY, ParseMode("RTTY"))
	assert.Equal(t, ModeFM, ParseMode("FM"))
	assert.Equal(t, ModeUnknown, ParseMode("JT65"))
}

func TestQSO_Exchange(t *testing.T) {
	q := QSO{Sent: Exchange{Callsign: "W6YX"}, Recvd: Exchange{Callsign: "K6ABC"}}
	assert.Equal(t, "W6YX", q.Exchange(Sent).Callsign)
	assert.Equal(t, "K6ABC", q.Exchange(Received).Callsign)

	q.Exchange(Received).Serial = 42
	assert.Equal(t, 42, q.Recvd.Serial)
	assert.Equal(t, "received", Received.String())
}

func TestQSO_Line(t *testing.T) {
	q := QSO{
		Frequency: 7025,
		Mode:      ModeCW,
		Time:      time.Date(2024, 3, 24, 1, 0, 0, 0, time.UTC),
		Sent:      Exchange{Callsign: "W6YX", Serial: 12, Location: "SCLA"},
		Recvd:     Exchange{Callsign: "K6ABC", Serial: 7, Location: "ALAM"},
	}
	assert.Equal(t, " 7025 CW 2024-03-24 0100 W6YX         12 SCLA K6ABC         7 ALAM", q.Line())
}

func TestPairKey_OrderIndependent(t *testing.T) {
	a := &QSO{Frequency: 7025, Mode: ModeCW, Time: time.Unix(1711242000, 0), Sent: Exchange{Callsign: "W6YX", Serial: 1}}
	b := &QSO{Frequency: 7025, Mode: ModeCW, Time: time.Unix(1711242060, 0), Sent: Exchange{Callsign: "K6ABC", Serial: 2}}

	k1, err := NewPairKey(a, b)
	require.NoError(t, err)
	k2, err := NewPairKey(b, a)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.Len(t, k1.Hash, 64)
	assert.LessOrEqual(t, k1.Line1, k1.Line2)
}

func TestMarshalCanonical(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"b": 2, "a": "x<y", "c": true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x<y","b":2,"c":true}`, string(data))

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)
}
