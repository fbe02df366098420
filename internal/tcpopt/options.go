// Package tcpopt implements the option-area walker (C2): a single
// bounds-checked pass over a TCP header's options, plus the three mutators
// rewrite handlers hang off it (MSS clamp, timestamp erasure, SACK edge
// rewrite) and the one-shot client-address insertion used by FullNAT on the
// first ingress segment of a flow that has room for it (spec §4.2).
//
// The TLV layout and option kind constants are grounded on the teacher's
// netraw/packet_builder.go, which defines the same five kinds this module
// needs to recognize.
package tcpopt

import "errors"

// Option kinds, as defined by netraw/packet_builder.go.
const (
	KindEOL        = 0
	KindNOP        = 1
	KindMSS        = 2
	KindWScale     = 3
	KindSACKPermit = 4
	KindSACK       = 5
	KindTimestamp  = 8
)

// ErrMalformed is returned by Walk when an option's declared length would
// run past the end of the option area, or is smaller than the TLV minimum.
// A malformed option area is never partially rewritten: callers must abort
// the whole mutation on this error (spec §7 "never partially apply").
var ErrMalformed = errors.New("tcpopt: malformed option area")

// Visitor is called once per TLV option (not for EOL/NOP, which have no
// payload). data is the option's value bytes, not including the kind/length
// octets. offset is the byte offset of the kind octet within options.
// Returning false stops the walk early without error.
type Visitor func(kind byte, data []byte, offset int) bool

// Walk scans options kind-by-kind, calling visit for every TLV option it
// finds. EOL stops the scan immediately (the rest of the area is padding);
// NOP is skipped. Any length that would read past len(options) is reported
// as ErrMalformed and the walk stops — the caller must not trust any bytes
// already visited as a basis for further mutation once this happens for a
// follow-on option (spec §4.2 "abort cleanly on malformed options").
func Walk(options []byte, visit Visitor) error {
	i := 0
	for i < len(options) {
		kind := options[i]
		switch kind {
		case KindEOL:
			return nil
		case KindNOP:
			i++
			continue
		}
		if i+1 >= len(options) {
			return ErrMalformed
		}
		length := int(options[i+1])
		if length < 2 || i+length > len(options) {
			return ErrMalformed
		}
		data := options[i+2 : i+length]
		if !visit(kind, data, i) {
			return nil
		}
		i += length
	}
	return nil
}

// findOption returns the offset and full TLV length of the first option of
// the given kind, or ok=false if absent or the area is malformed.
func findOption(options []byte, kind byte) (offset, length int, ok bool) {
	_ = Walk(options, func(k byte, data []byte, off int) bool {
		if k == kind {
			offset, length, ok = off, len(data)+2, true
			return false
		}
		return true
	})
	return
}

// AdjustMSS clamps an existing MSS option down by delta bytes (never
// raising it), the way FullNAT and SYN-proxy shrink the advertised MSS to
// make room for the options they may add on the backend leg (spec §4.2).
// Returns false if there is no MSS option to adjust or the option area is
// malformed; this is not an error for the caller, since an MSS-less SYN is
// legal TCP and simply has nothing to clamp.
//
// Per the original's behavior (and spec §9 OQ2), this clamp is applied
// unconditionally whenever the caller's mss_adjust_entry knob is set, even
// on flows where the corresponding client-address insertion later fails —
// the two are independent knobs, not a matched pair.
func AdjustMSS(options []byte, delta uint16) bool {
	off, length, ok := findOption(options, KindMSS)
	if !ok || length != 4 {
		return false
	}
	cur := uint16(options[off+2])<<8 | uint16(options[off+3])
	if cur <= delta {
		return false
	}
	next := cur - delta
	options[off+2] = byte(next >> 8)
	options[off+3] = byte(next)
	return true
}

// EraseTimestamp overwrites an existing timestamp option in place with NOPs,
// preserving the option area's length (spec §4.2 "timestamp erasure"). This
// is used when a backend's timestamp clock would otherwise leak across a
// FullNAT boundary where the two legs' clocks are not synchronized.
func EraseTimestamp(options []byte) bool {
	off, length, ok := findOption(options, KindTimestamp)
	if !ok {
		return false
	}
	for i := 0; i < length; i++ {
		options[off+i] = KindNOP
	}
	return true
}

// RewriteSACK walks every SACK block in an existing SACK option and replaces
// each of its two 32-bit edges with adjust(edge). Used on both directions of
// a FullNAT or SYN-proxy flow to keep SACK edges consistent with the
// sequence-number translation applied to the rest of the segment (spec
// §4.2, §4.3). Returns false if there is no SACK option.
func RewriteSACK(options []byte, adjust func(edge uint32) uint32) bool {
	off, length, ok := findOption(options, KindSACK)
	if !ok {
		return false
	}
	blockArea := options[off+2 : off+length]
	for i := 0; i+8 <= len(blockArea); i += 8 {
		left := uint32(blockArea[i])<<24 | uint32(blockArea[i+1])<<16 | uint32(blockArea[i+2])<<8 | uint32(blockArea[i+3])
		right := uint32(blockArea[i+4])<<24 | uint32(blockArea[i+5])<<16 | uint32(blockArea[i+6])<<8 | uint32(blockArea[i+7])
		left, right = adjust(left), adjust(right)
		blockArea[i], blockArea[i+1], blockArea[i+2], blockArea[i+3] = byte(left>>24), byte(left>>16), byte(left>>8), byte(left)
		blockArea[i+4], blockArea[i+5], blockArea[i+6], blockArea[i+7] = byte(right>>24), byte(right>>16), byte(right>>8), byte(right)
	}
	return true
}
