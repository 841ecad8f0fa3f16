package blemidi

// Status bytes, by class. See spec §3 "Status class" and §4.1.
const (
	StatusSysexStart byte = 0xF0
	StatusSysexEnd    byte = 0xF7
)

// statusLength returns the total message length (status byte included)
// implied by a BLE MIDI status byte, or 0 if b does not carry an
// in-band length here. Sysex framing bytes (F0, F7) return 0: they are
// handled out of band by the writer and parser, never as a fixed-length
// message.
func statusLength(b byte) int {
	switch b & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	}
	switch b {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF6:
		return 1
	case 0xF8, 0xFA, 0xFB, 0xFC, 0xFE, 0xFF:
		return 1
	}
	return 0
}

// isChannel reports whether b is a channel voice status byte (8x-Ex).
func isChannel(b byte) bool {
	return b >= 0x80 && b <= 0xEF
}

// isRealTime reports whether b is a system real-time status byte.
func isRealTime(b byte) bool {
	switch b {
	case 0xF8, 0xFA, 0xFB, 0xFC, 0xFE, 0xFF:
		return true
	}
	return false
}

// isSystemCommon reports whether b is one of the system common status
// bytes BLE MIDI carries in a packet (F1, F2, F3, F6). F0/F7 are sysex
// framing, not system common, and are excluded here on purpose.
func isSystemCommon(b byte) bool {
	switch b {
	case 0xF1, 0xF2, 0xF3, 0xF6:
		return true
	}
	return false
}

// isData reports whether b is a MIDI data byte (high bit clear).
func isData(b byte) bool {
	return b < 0x80
}

// isSysCommonOrRealTime reports whether b is either system common or
// system real-time, the class of status that preserves but does not
// clear the running-status reference (spec §4.2).
func isSysCommonOrRealTime(b byte) bool {
	return isSystemCommon(b) || isRealTime(b)
}
