// Package chksum implements the checksum engine (C1): one's-complement
// pseudo-header checksums for IPv4/IPv6 TCP segments, and incremental delta
// math for updating a checksum when only a handful of 16- or 32-bit fields
// changed. The rewrite handlers in internal/rewrite do not use the
// incremental form; they recompute the full checksum. The summation algorithm is
// grounded on the teacher's byte-level checksum helper in
// netraw/packet_builder.go (Checksum); the incremental delta update follows
// RFC 1624's formula, the same one the original kernel source applies on
// every NAT rewrite.
package chksum

import "net"

// sum accumulates data as a sequence of big-endian 16-bit words into a
// 32-bit accumulator, carrying an odd trailing byte as if padded with a
// zero low byte. Mirrors the teacher's Checksum loop before it folds.
func sum(data []byte) uint32 {
	var s uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		s += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		s += uint32(data[n-1]) << 8
	}
	return s
}

// fold reduces a 32-bit accumulator to its one's-complement 16-bit checksum:
// repeatedly add the carry back in, then complement.
func fold(s uint32) uint16 {
	for s>>16 != 0 {
		s = (s & 0xffff) + (s >> 16)
	}
	return ^uint16(s)
}

// Checksum returns the full one's-complement checksum of data, matching the
// teacher's Checksum(data []byte) uint16.
func Checksum(data []byte) uint16 {
	return fold(sum(data))
}

// pseudoHeaderSumV4 accumulates the IPv4 TCP pseudo-header words (source,
// destination, zero/protocol, segment length) without folding, so callers
// can add it to the segment sum before a single fold.
func pseudoHeaderSumV4(src, dst net.IP, protocol byte, segLen int) uint32 {
	s := sum(src.To4())
	s += sum(dst.To4())
	s += uint32(protocol)
	s += uint32(segLen)
	return s
}

// pseudoHeaderSumV6 is the IPv6 analogue (RFC 8200 §8.1): 16-byte addresses,
// a 32-bit upper-layer length, and the next-header byte in the low byte of
// its 32-bit field.
func pseudoHeaderSumV6(src, dst net.IP, nextHeader byte, segLen int) uint32 {
	s := sum(src.To16())
	s += sum(dst.To16())
	s += uint32(segLen >> 16)
	s += uint32(segLen & 0xffff)
	s += uint32(nextHeader)
	return s
}

// TCPv4 computes the TCP checksum over segment (header+options+payload)
// using the IPv4 pseudo-header. segment's checksum field must be zero when
// called, as required by RFC 793.
func TCPv4(src, dst net.IP, segment []byte) uint16 {
	s := pseudoHeaderSumV4(src, dst, 6, len(segment)) + sum(segment)
	return fold(s)
}

// TCPv6 is the IPv6 analogue of TCPv4.
func TCPv6(src, dst net.IP, segment []byte) uint16 {
	s := pseudoHeaderSumV6(src, dst, 6, len(segment)) + sum(segment)
	return fold(s)
}

// VerifyTCPv4 reports whether segment's existing checksum field is correct
// for the given IPv4 pseudo-header. Used at packet ingress (spec §4.1
// "verification on input") before any rewrite is attempted; a packet that
// fails verification is not a protocol-module concern to fix, only to flag.
func VerifyTCPv4(src, dst net.IP, segment []byte) bool {
	s := pseudoHeaderSumV4(src, dst, 6, len(segment)) + sum(segment)
	return fold(s) == 0
}

// VerifyTCPv6 is the IPv6 analogue of VerifyTCPv4.
func VerifyTCPv6(src, dst net.IP, segment []byte) bool {
	s := pseudoHeaderSumV6(src, dst, 6, len(segment)) + sum(segment)
	return fold(s) == 0
}

// AdjustReplace16 returns the incrementally-updated checksum after replacing
// a 16-bit field old with new inside the checksummed region, per RFC 1624
// eq. 3: HC' = ~(~HC + ~m + m').
func AdjustReplace16(csum, old, new16 uint16) uint16 {
	s := uint32(^csum&0xffff) + uint32(^old&0xffff) + uint32(new16)
	return fold(s)
}

// AdjustReplace32 is the 32-bit-field analogue of AdjustReplace16, for a
// rewritten sequence or acknowledgment number (spec §4.3's delta math) or
// an IPv4 address. The 32-bit field is treated as two 16-bit words summed
// together, which is algebraically equivalent to folding the full field.
func AdjustReplace32(csum uint16, old, new32 uint32) uint16 {
	s := uint32(^csum & 0xffff)
	s += uint32(uint16(^old>>16)) + uint32(uint16(^old))
	s += uint32(uint16(new32 >> 16)) + uint32(uint16(new32))
	return fold(s)
}
