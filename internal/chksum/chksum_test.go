package chksum

import (
	"net"
	"testing"
)

func TestChecksumRoundTrip(t *testing.T) {
	// A segment with its checksum field zeroed, then filled in, must verify.
	src := net.ParseIP("10.0.0.1")
	dst := net.ParseIP("10.0.0.2")

	segment := []byte{
		0x04, 0xd2, // src port 1234
		0x00, 0x50, // dst port 80
		0x00, 0x00, 0x00, 0x01, // seq
		0x00, 0x00, 0x00, 0x00, // ack
		0x50, 0x02, // data offset 5, SYN
		0xff, 0xff, // window
		0x00, 0x00, // checksum (zero for now)
		0x00, 0x00, // urgent ptr
	}

	csum := TCPv4(src, dst, segment)
	segment[16] = byte(csum >> 8)
	segment[17] = byte(csum)

	if !VerifyTCPv4(src, dst, segment) {
		t.Errorf("segment failed to verify after filling in its own checksum")
	}
}

func TestVerifyTCPv4RejectsCorruption(t *testing.T) {
	src := net.ParseIP("192.168.1.1")
	dst := net.ParseIP("192.168.1.2")
	segment := []byte{
		0x00, 0x50, 0x04, 0xd2,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00,
		0x50, 0x10, 0xff, 0xff,
		0x00, 0x00, 0x00, 0x00,
	}
	csum := TCPv4(src, dst, segment)
	segment[16] = byte(csum >> 8)
	segment[17] = byte(csum)

	segment[0] ^= 0xff // flip the source port after the checksum was computed
	if VerifyTCPv4(src, dst, segment) {
		t.Errorf("expected corrupted segment to fail verification")
	}
}

func TestAdjustReplace16MatchesFullRecompute(t *testing.T) {
	src := net.ParseIP("10.1.1.1")
	dst := net.ParseIP("10.1.1.2")
	segment := []byte{
		0x1f, 0x90, 0x00, 0x50,
		0x00, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00, 0x00,
		0x50, 0x10, 0x10, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	full := TCPv4(src, dst, segment)
	segment[16], segment[17] = byte(full>>8), byte(full)

	oldPort := uint16(segment[0])<<8 | uint16(segment[1])
	newPort := uint16(8080)

	incremental := AdjustReplace16(full, oldPort, newPort)

	segment[0], segment[1] = byte(newPort>>8), byte(newPort)
	segment[16], segment[17] = 0, 0
	recomputed := TCPv4(src, dst, segment)

	if incremental != recomputed {
		t.Errorf("incremental checksum update = %#04x, full recompute = %#04x", incremental, recomputed)
	}
}

func TestAdjustReplace32MatchesFullRecompute(t *testing.T) {
	src := net.ParseIP("172.16.0.1")
	dst := net.ParseIP("172.16.0.2")
	segment := []byte{
		0x00, 0x50, 0x1f, 0x90,
		0x00, 0x00, 0x30, 0x39,
		0x00, 0x00, 0x00, 0x00,
		0x50, 0x10, 0x20, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	full := TCPv4(src, dst, segment)
	segment[16], segment[17] = byte(full>>8), byte(full)

	oldSeq := uint32(0x00003039)
	newSeq := uint32(0xdeadbeef)
	incremental := AdjustReplace32(full, oldSeq, newSeq)

	segment[4], segment[5], segment[6], segment[7] = byte(newSeq>>24), byte(newSeq>>16), byte(newSeq>>8), byte(newSeq)
	segment[16], segment[17] = 0, 0
	recomputed := TCPv4(src, dst, segment)

	if incremental != recomputed {
		t.Errorf("incremental 32-bit checksum update = %#04x, full recompute = %#04x", incremental, recomputed)
	}
}
