// Package rewrite implements the four header-rewrite handlers (C4):
// SNAT-out and DNAT-in (masquerade mode), and FNAT-in/FNAT-out (FullNAT
// mode). Direct-routing flows never reach this package — there is nothing
// to rewrite (spec §4.4).
//
// Every handler follows the same skeleton: locate the IP/TCP header
// offsets, bail out if the buffer cannot be mutated in place, run the
// helper's pre-mutation hook, apply the handler's specific field rewrites,
// then recompute checksums exactly once. The skeleton itself is grounded on
// the teacher's BuildTCPHeaderWithChecksum, which computes the pseudo-header
// checksum only after every header field is final.
package rewrite

import (
	"encoding/binary"
	"net"

	"vstcp/internal/flow"
)

// segment is a parsed view over a packet buffer: offsets only, no copying.
type segment struct {
	packet []byte
	family flow.Family
	ipLen  int // IPv4/IPv6 fixed+options header length
	tcpOff int // == ipLen; start of the TCP header
}

// ErrTooShort-style failures are reported as ok=false rather than error
// values, matching spec §7: a rewrite handler either produces a fully
// mutated, checksummed packet or refuses to touch it at all.
func parseSegment(packet []byte, family flow.Family) (segment, bool) {
	var ipLen int
	switch family {
	case flow.FamilyV4:
		if len(packet) < 20 {
			return segment{}, false
		}
		ipLen = int(packet[0]&0x0f) * 4
		if ipLen < 20 {
			return segment{}, false
		}
	case flow.FamilyV6:
		ipLen = 40
	default:
		return segment{}, false
	}
	if len(packet) < ipLen+20 {
		return segment{}, false
	}
	dataOffset := int(packet[ipLen+12]>>4) * 4
	if dataOffset < 20 || ipLen+dataOffset > len(packet) {
		return segment{}, false
	}
	return segment{packet: packet, family: family, ipLen: ipLen, tcpOff: ipLen}, true
}

func (s segment) tcp() []byte { return s.packet[s.tcpOff:] }

func (s segment) srcIP() net.IP {
	if s.family == flow.FamilyV4 {
		return net.IP(s.packet[12:16])
	}
	return net.IP(s.packet[8:24])
}

func (s segment) dstIP() net.IP {
	if s.family == flow.FamilyV4 {
		return net.IP(s.packet[16:20])
	}
	return net.IP(s.packet[24:40])
}

func (s segment) setSrcIP(ip net.IP) {
	if s.family == flow.FamilyV4 {
		copy(s.packet[12:16], ip.To4())
	} else {
		copy(s.packet[8:24], ip.To16())
	}
}

func (s segment) setDstIP(ip net.IP) {
	if s.family == flow.FamilyV4 {
		copy(s.packet[16:20], ip.To4())
	} else {
		copy(s.packet[24:40], ip.To16())
	}
}

func (s segment) srcPort() uint16 { return binary.BigEndian.Uint16(s.tcp()[0:2]) }
func (s segment) dstPort() uint16 { return binary.BigEndian.Uint16(s.tcp()[2:4]) }
func (s segment) seq() uint32     { return binary.BigEndian.Uint32(s.tcp()[4:8]) }
func (s segment) ack() uint32     { return binary.BigEndian.Uint32(s.tcp()[8:12]) }
func (s segment) flags() byte     { return s.tcp()[13] }
func (s segment) dataOffset() int { return int(s.tcp()[12]>>4) * 4 }

func (s segment) setSrcPort(p uint16) { binary.BigEndian.PutUint16(s.tcp()[0:2], p) }
func (s segment) setDstPort(p uint16) { binary.BigEndian.PutUint16(s.tcp()[2:4], p) }
func (s segment) setSeq(v uint32)     { binary.BigEndian.PutUint32(s.tcp()[4:8], v) }
func (s segment) setAck(v uint32)     { binary.BigEndian.PutUint32(s.tcp()[8:12], v) }

func (s segment) options() []byte {
	return s.tcp()[20:s.dataOffset()]
}

// ipv4HeaderChecksumFix recomputes the IPv4 header checksum in place; a
// no-op for IPv6, which has none.
func ipv4HeaderChecksumFix(s segment, recompute func([]byte) uint16) {
	if s.family != flow.FamilyV4 {
		return
	}
	hdr := s.packet[:s.ipLen]
	hdr[10], hdr[11] = 0, 0
	c := recompute(hdr)
	hdr[10], hdr[11] = byte(c>>8), byte(c)
}
