package tcpopt

import (
	"net"

	"golang.org/x/net/ipv4"
)

// KindClientAddr is the non-standard option kind used to carry the
// pre-NAT client address/port down to the real server (the "TOA" — TCP
// option address — insertion named in spec §4.2). The original kernel
// patch this module is distilled from reserves kind 200 for it; no IANA
// option kind is assigned, since this is a private convention between the
// balancer and a cooperating backend stack.
const KindClientAddr = 200

// maxDataOffset is the largest value the 4-bit data-offset field can carry:
// 15 * 4 = 60 bytes of TCP header+options.
const maxDataOffset = 60

// AppendClientAddrV4 inserts a client-address option carrying clientIP and
// clientPort into an IPv4/TCP packet, widening the TCP option area (and the
// packet buffer) to make room. It is a one-shot mutation: the caller (spec
// §4.2, §4.3) must track that it only ever runs once per flow via the
// flow's CIPInserted flag — this function does not check or set that flag
// itself, since flag bookkeeping belongs to the flow, not the option area.
//
// Returns the new packet and true on success. Returns false, unchanged
// input on failure: the option area has no room left (data offset would
// exceed 60 bytes), or the packet is too short to contain a parseable IPv4
// header. The IPv4 total-length field is corrected in the returned packet;
// neither the IP header checksum nor the TCP checksum is recomputed here —
// that is the rewrite handler's job once all of a handler's mutations are
// applied (spec §4.1, "checksum recompute happens once per handler, last").
func AppendClientAddrV4(packet []byte, clientIP net.IP, clientPort uint16) ([]byte, bool) {
	ip4 := clientIP.To4()
	if ip4 == nil {
		return packet, false
	}
	h, err := ipv4.ParseHeader(packet)
	if err != nil {
		return packet, false
	}
	ihl := h.Len
	if ihl+20 > len(packet) {
		return packet, false
	}
	dataOffset := int(packet[ihl+12]>>4) * 4
	if dataOffset < 20 || ihl+dataOffset > len(packet) {
		return packet, false
	}
	const optLen = 8 // kind(1) + length(1) + port(2) + addr(4)
	newDataOffset := dataOffset + optLen
	if newDataOffset > maxDataOffset {
		return packet, false
	}

	insertAt := ihl + dataOffset
	out := make([]byte, 0, len(packet)+optLen)
	out = append(out, packet[:insertAt]...)
	out = append(out, KindClientAddr, optLen, byte(clientPort>>8), byte(clientPort))
	out = append(out, ip4...)
	out = append(out, packet[insertAt:]...)

	out[ihl+12] = (out[ihl+12] & 0x0f) | byte(newDataOffset/4)<<4

	h.TotalLen = len(out)
	h.Checksum = 0
	hdrBytes, err := h.Marshal()
	if err != nil || len(hdrBytes) != ihl {
		return packet, false
	}
	copy(out[:ihl], hdrBytes)
	return out, true
}

// AppendClientAddrV6 is the IPv6 analogue of AppendClientAddrV4. IPv6 has no
// header checksum and no total-length field to patch in the fixed header —
// only the payload-length field (bytes 4-5 of the fixed 40-byte header)
// needs correcting, and this function rewrites it in the returned packet.
func AppendClientAddrV6(packet []byte, clientIP net.IP, clientPort uint16, ipHeaderLen int) ([]byte, bool) {
	ip6 := clientIP.To16()
	if ip6 == nil || clientIP.To4() != nil {
		return packet, false
	}
	if ipHeaderLen < 40 || ipHeaderLen+20 > len(packet) {
		return packet, false
	}
	dataOffset := int(packet[ipHeaderLen+12]>>4) * 4
	if dataOffset < 20 || ipHeaderLen+dataOffset > len(packet) {
		return packet, false
	}
	const optLen = 20 // kind(1) + length(1) + port(2) + addr(16)
	newDataOffset := dataOffset + optLen
	if newDataOffset > maxDataOffset {
		return packet, false
	}

	insertAt := ipHeaderLen + dataOffset
	out := make([]byte, 0, len(packet)+optLen)
	out = append(out, packet[:insertAt]...)
	out = append(out, KindClientAddr, optLen, byte(clientPort>>8), byte(clientPort))
	out = append(out, ip6...)
	out = append(out, packet[insertAt:]...)

	out[ipHeaderLen+12] = (out[ipHeaderLen+12] & 0x0f) | byte(newDataOffset/4)<<4

	payloadLen := len(out) - ipHeaderLen
	out[4] = byte(payloadLen >> 8)
	out[5] = byte(payloadLen)
	return out, true
}
