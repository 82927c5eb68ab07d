package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNoteOn(t *testing.T) {
	for v := 0; v <= 127; v++ {
		ev, ok := Decode([]byte{0x90, 36, byte(v)})
		if v == 0 {
			assert.False(t, ok, "velocity 0 must not produce an event")
			continue
		}
		require.True(t, ok, "velocity %d", v)
		assert.Equal(t, NoteOn{Pad: 36, Velocity: uint8(v)}, ev)
	}
}

func TestDecodeControlChange(t *testing.T) {
	for v := 0; v <= 127; v++ {
		ev, ok := Decode([]byte{0xB0, 91, byte(v)})
		if v == 0 {
			assert.False(t, ok, "value 0 must not produce an event")
			continue
		}
		require.True(t, ok, "value %d", v)
		assert.Equal(t, ControlChange{Control: 91, Value: uint8(v)}, ev)
	}
}

func TestDecodeIgnoresChannel(t *testing.T) {
	ev, ok := Decode([]byte{0x95, 11, 64})
	require.True(t, ok)
	assert.Equal(t, NoteOn{Pad: 11, Velocity: 64}, ev)

	ev, ok = Decode([]byte{0xBF, 104, 127})
	require.True(t, ok)
	assert.Equal(t, ControlChange{Control: 104, Value: 127}, ev)
}

func TestDecodeDropsOtherMessages(t *testing.T) {
	tests := map[string][]byte{
		"empty":            {},
		"status only":      {0x90},
		"two bytes":        {0x90, 36},
		"note off":         {0x80, 36, 64},
		"poly aftertouch":  {0xA0, 36, 64},
		"program change":   {0xC0, 5, 0},
		"channel pressure": {0xD0, 64, 1},
		"pitch bend":       {0xE0, 0, 64},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			ev, ok := Decode(data)
			assert.False(t, ok)
			assert.Nil(t, ev)
		})
	}
}

func TestDecodeDropsHighDataBytes(t *testing.T) {
	tests := map[string][]byte{
		"note index":    {0x90, 0x80, 0x40},
		"note velocity": {0x90, 36, 0xFF},
		"velocity 0x80": {0x90, 36, 0x80},
		"cc index":      {0xB0, 0xC8, 0x10},
		"cc value":      {0xB0, 91, 0x90},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, ok := Decode(data)
			assert.False(t, ok)
		})
	}
}

func TestDecodeUsesFirstThreeBytes(t *testing.T) {
	ev, ok := Decode([]byte{0x90, 1, 2, 3, 4})
	require.True(t, ok)
	assert.Equal(t, NoteOn{Pad: 1, Velocity: 2}, ev)
}

func TestEncodeColors(t *testing.T) {
	pad, err := Encode(SetPadColor{Pad: 10, Color: 21})
	require.NoError(t, err)
	require.Len(t, pad, 1)
	assert.Equal(t, []byte{0x90, 10, 21}, pad[0].Bytes())

	btn, err := Encode(SetButtonColor{Control: 91, Color: 5})
	require.NoError(t, err)
	require.Len(t, btn, 1)
	assert.Equal(t, []byte{0xB0, 91, 5}, btn[0].Bytes())
}

func TestEncodeClearAll(t *testing.T) {
	msgs, err := Encode(ClearAll{})
	require.NoError(t, err)
	require.Len(t, msgs, 254)

	for i := 0; i < 127; i++ {
		assert.Equal(t, []byte{0x90, byte(i), 0}, msgs[2*i].Bytes(), "note off %d", i)
		assert.Equal(t, []byte{0xB0, byte(i), 0}, msgs[2*i+1].Bytes(), "cc off %d", i)
	}
}

func TestProgrammerModeMessage(t *testing.T) {
	assert.Equal(t,
		[]byte{0xF0, 0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x01, 0xF7},
		ProgrammerModeMessage().Bytes())
}

func TestEncodeRejectsOutOfRange(t *testing.T) {
	tests := map[string]Command{
		"pad index":    SetPadColor{Pad: 200, Color: 5},
		"pad color":    SetPadColor{Pad: 11, Color: 128},
		"button index": SetButtonColor{Control: 128, Color: 5},
		"button color": SetButtonColor{Control: 91, Color: 255},
	}
	for name, cmd := range tests {
		t.Run(name, func(t *testing.T) {
			msgs, err := Encode(cmd)
			assert.ErrorIs(t, err, ErrInvalidCommand)
			assert.Empty(t, msgs)
		})
	}

	msgs, err := Encode(SetPadColor{Pad: 127, Color: 127})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 127, 127}, msgs[0].Bytes())
}

func TestSplitMessages(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want [][]byte
	}{
		{"single", []byte{0x90, 11, 100}, [][]byte{{0x90, 11, 100}}},
		{
			"concatenated",
			[]byte{0x90, 11, 100, 0xB0, 91, 127},
			[][]byte{{0x90, 11, 100}, {0xB0, 91, 127}},
		},
		{
			"running status",
			[]byte{0x90, 11, 100, 12, 0},
			[][]byte{{0x90, 11, 100}, {0x90, 12, 0}},
		},
		{
			"program change is two bytes",
			[]byte{0xC0, 5, 0x90, 11, 1},
			[][]byte{{0xC0, 5}, {0x90, 11, 1}},
		},
		{
			"sysex passes whole",
			[]byte{0xF0, 0x00, 0x20, 0x29, 0xF7, 0xB0, 91, 1},
			[][]byte{{0xF0, 0x00, 0x20, 0x29, 0xF7}, {0xB0, 91, 1}},
		},
		{
			"realtime inside message stream",
			[]byte{0xF8, 0x90, 11, 100},
			[][]byte{{0xF8}, {0x90, 11, 100}},
		},
		{"stray data", []byte{11, 100}, nil},
		{"truncated", []byte{0x90, 11}, [][]byte{{0x90, 11}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitMessages(tt.in))
		})
	}
}
