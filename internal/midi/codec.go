package midi

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// ErrInvalidCommand means a command carries an index or color outside 0-127
var ErrInvalidCommand = errors.New("invalid command")

// clearRange is the number of Note and CC addresses reset by ClearAll (0-126)
const clearRange = 127

// programmerMode is the SysEx body switching the Launchpad into programmer mode.
// On the wire: F0 00 20 29 02 0D 0E 01 F7
var programmerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x01}

// ProgrammerModeMessage returns the framed mode-switch SysEx message
func ProgrammerModeMessage() midi.Message {
	return midi.SysEx(programmerMode)
}

// Decode turns a raw message from the controller into an event.
// Messages shorter than three bytes, data bytes with the high bit set, zero
// velocities/values and any status other than Note On or Control Change
// produce no event.
func Decode(data []byte) (Event, bool) {
	if len(data) < 3 || !isData(data[1]) || !isData(data[2]) {
		return nil, false
	}

	msg := midi.Message(data[:3])
	var channel, key, value uint8

	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		return NoteOn{Pad: key, Velocity: value}, true
	case msg.GetControlChange(&channel, &key, &value):
		if value > 0 {
			return ControlChange{Control: key, Value: value}, true
		}
	}

	return nil, false
}

func isData(b byte) bool {
	return b < 0x80
}

// Encode turns a command into the messages that implement it, in send order.
// All messages go out on channel 1. Indices and colors above 127 are rejected
// rather than clamped onto another LED.
func Encode(cmd Command) ([]midi.Message, error) {
	switch c := cmd.(type) {
	case SetPadColor:
		if !isData(c.Pad) || !isData(c.Color) {
			return nil, fmt.Errorf("%w: pad %d color %d", ErrInvalidCommand, c.Pad, c.Color)
		}
		return []midi.Message{midi.NoteOn(0, c.Pad, c.Color)}, nil
	case SetButtonColor:
		if !isData(c.Control) || !isData(c.Color) {
			return nil, fmt.Errorf("%w: control %d color %d", ErrInvalidCommand, c.Control, c.Color)
		}
		return []midi.Message{midi.ControlChange(0, c.Control, c.Color)}, nil
	case ClearAll:
		msgs := make([]midi.Message, 0, 2*clearRange)
		for i := uint8(0); i < clearRange; i++ {
			msgs = append(msgs, midi.NoteOn(0, i, 0), midi.ControlChange(0, i, 0))
		}
		return msgs, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrInvalidCommand, cmd)
}

// SplitMessages cuts a packet holding several concatenated messages into
// single messages. Running status is expanded and SysEx is passed through whole.
// Stray data bytes without a status are dropped.
func SplitMessages(data []byte) [][]byte {
	var (
		msgs    [][]byte
		running byte
	)
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == 0xF0:
			end := i + 1
			for end < len(data) && data[end] != 0xF7 {
				end++
			}
			if end < len(data) {
				end++
			}
			msgs = append(msgs, data[i:end])
			running = 0
			i = end
			continue
		case b >= 0xF8:
			// realtime bytes may sit anywhere and do not touch running status
			msgs = append(msgs, data[i:i+1])
			i++
			continue
		case b >= 0x80:
			running = 0
			if b < 0xF0 {
				running = b
			}
			n := messageLen(b)
			end := min(i+n, len(data))
			msgs = append(msgs, data[i:end])
			i = end
			continue
		}

		if running == 0 {
			i++
			continue
		}
		n := messageLen(running) - 1
		end := min(i+n, len(data))
		msg := append([]byte{running}, data[i:end]...)
		msgs = append(msgs, msg)
		i = end
	}
	return msgs
}

// messageLen is the full length, status included, of a non-SysEx message
func messageLen(status byte) int {
	switch {
	case status >= 0xF8, status == 0xF6, status == 0xF7:
		return 1
	case status == 0xF1, status == 0xF3:
		return 2
	case status == 0xF2:
		return 3
	case status >= 0xF0:
		return 1
	}
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 2
	}
	return 3
}
