package tcpopt

import (
	"net"
	"testing"
)

func TestWalkStopsAtEOL(t *testing.T) {
	options := []byte{KindMSS, 4, 0x05, 0xb4, KindEOL, 0xaa, 0xaa, 0xaa}
	var seen []byte
	err := Walk(options, func(kind byte, data []byte, offset int) bool {
		seen = append(seen, kind)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 1 || seen[0] != KindMSS {
		t.Errorf("expected walk to see only MSS before EOL, got %v", seen)
	}
}

func TestWalkRejectsOverrunLength(t *testing.T) {
	options := []byte{KindMSS, 0xff, 0x05, 0xb4}
	err := Walk(options, func(kind byte, data []byte, offset int) bool { return true })
	if err != ErrMalformed {
		t.Errorf("expected ErrMalformed for an overrunning length, got %v", err)
	}
}

func TestAdjustMSSClampsDown(t *testing.T) {
	options := []byte{KindMSS, 4, 0x05, 0xb4} // 1460
	if !AdjustMSS(options, 12) {
		t.Fatalf("expected AdjustMSS to find and clamp the option")
	}
	got := uint16(options[2])<<8 | uint16(options[3])
	if got != 1448 {
		t.Errorf("expected clamped MSS 1448, got %d", got)
	}
}

func TestAdjustMSSAbsent(t *testing.T) {
	options := []byte{KindNOP, KindNOP, KindEOL}
	if AdjustMSS(options, 12) {
		t.Errorf("expected AdjustMSS to report false when no MSS option is present")
	}
}

func TestEraseTimestampPreservesLength(t *testing.T) {
	options := []byte{KindTimestamp, 10, 0, 0, 0, 1, 0, 0, 0, 0, KindEOL}
	before := len(options)
	if !EraseTimestamp(options) {
		t.Fatalf("expected EraseTimestamp to find the option")
	}
	if len(options) != before {
		t.Errorf("option area length changed: was %d, now %d", before, len(options))
	}
	for i := 0; i < 10; i++ {
		if options[i] != KindNOP {
			t.Errorf("byte %d not NOPed out: %#02x", i, options[i])
		}
	}
}

func TestRewriteSACKAdjustsBothEdges(t *testing.T) {
	options := make([]byte, 10)
	options[0] = KindSACK
	options[1] = 10
	options[2], options[3], options[4], options[5] = 0, 0, 0, 100
	options[6], options[7], options[8], options[9] = 0, 0, 0, 200

	if !RewriteSACK(options, func(edge uint32) uint32 { return edge + 1000 }) {
		t.Fatalf("expected RewriteSACK to find the option")
	}
	left := uint32(options[2])<<24 | uint32(options[3])<<16 | uint32(options[4])<<8 | uint32(options[5])
	right := uint32(options[6])<<24 | uint32(options[7])<<16 | uint32(options[8])<<8 | uint32(options[9])
	if left != 1100 || right != 1200 {
		t.Errorf("expected edges 1100/1200, got %d/%d", left, right)
	}
}

func TestAppendClientAddrV4WidensPacketAndFixesTotalLen(t *testing.T) {
	// 20-byte IPv4 header, 20-byte TCP header (no options), no payload.
	packet := make([]byte, 40)
	packet[0] = 0x45 // version 4, IHL 5
	packet[9] = 6    // protocol TCP
	totalLen := uint16(40)
	packet[2], packet[3] = byte(totalLen>>8), byte(totalLen)
	packet[20+12] = 5 << 4 // TCP data offset 5 (20 bytes)

	out, ok := AppendClientAddrV4(packet, net.ParseIP("203.0.113.7"), 51234)
	if !ok {
		t.Fatalf("expected AppendClientAddrV4 to succeed")
	}
	if len(out) != 48 {
		t.Errorf("expected widened packet of 48 bytes, got %d", len(out))
	}
	newTotal := uint16(out[2])<<8 | uint16(out[3])
	if newTotal != 48 {
		t.Errorf("expected corrected IPv4 total length 48, got %d", newTotal)
	}
	newOffset := int(out[20+12]>>4) * 4
	if newOffset != 28 {
		t.Errorf("expected new TCP data offset 28, got %d", newOffset)
	}
	if out[40] != KindClientAddr {
		t.Errorf("expected client-address option kind at offset 40, got %#02x", out[40])
	}
}

func TestAppendClientAddrV4RejectsOverflow(t *testing.T) {
	packet := make([]byte, 20+60)
	packet[0] = 0x45
	packet[9] = 6
	packet[20+12] = 15 << 4 // already at the maximum data offset
	_, ok := AppendClientAddrV4(packet, net.ParseIP("203.0.113.7"), 1)
	if ok {
		t.Errorf("expected AppendClientAddrV4 to refuse to exceed the 60-byte header limit")
	}
}
