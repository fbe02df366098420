package rewrite

import (
	"vstcp/internal/chksum"
	"vstcp/internal/flow"
	"vstcp/internal/seqxlat"
	"vstcp/internal/tcpopt"
)

// Options carries the per-service knobs the FullNAT ingress handler
// consults (spec §6: mss_adjust_entry, timestamp_remove_entry, toa_entry).
// MSSDelta is the number of bytes to clamp the advertised MSS by, typically
// the length of the client-address option this handler may add.
type Options struct {
	MSSAdjustEntry       bool
	MSSDelta             uint16
	TimestampRemoveEntry bool
	TOAEntry             bool
}

// finish recomputes the IPv4 header and TCP checksums after every field
// mutation a handler makes, in that order — the IP checksum only covers the
// IP header, so it can be fixed first; the TCP checksum depends on the
// (possibly just-rewritten) IP addresses via the pseudo-header.
func finish(s segment) {
	ipv4HeaderChecksumFix(s, chksum.Checksum)
	tcp := s.tcp()
	tcp[16], tcp[17] = 0, 0
	var c uint16
	if s.family == flow.FamilyV4 {
		c = chksum.TCPv4(s.srcIP(), s.dstIP(), tcp)
	} else {
		c = chksum.TCPv6(s.srcIP(), s.dstIP(), tcp)
	}
	tcp[16], tcp[17] = byte(c>>8), byte(c)
}

// SNATOut rewrites a real-server→client segment in masquerade/NAT mode: the
// source becomes the virtual service's address/port, so the client never
// learns the real server's identity (spec §4.4).
func SNATOut(f *flow.Flow, packet []byte) ([]byte, bool) {
	s, ok := parseSegment(packet, f.Family)
	if !ok {
		return packet, false
	}
	if f.Helper != nil && !f.Helper.PktOut(f, packet) {
		return packet, false
	}
	s.setSrcIP(f.VirtualAddr)
	s.setSrcPort(f.VirtualPort)
	finish(s)
	return packet, true
}

// DNATIn rewrites a client→virtual-service segment in masquerade/NAT mode:
// the destination becomes the chosen real server's address/port.
func DNATIn(f *flow.Flow, packet []byte) ([]byte, bool) {
	s, ok := parseSegment(packet, f.Family)
	if !ok {
		return packet, false
	}
	if f.Helper != nil && !f.Helper.PktIn(f, packet) {
		return packet, false
	}
	s.setDstIP(f.DestAddr)
	s.setDstPort(f.DestPort)
	finish(s)
	return packet, true
}

// FNATIn rewrites a client→balancer segment in FullNAT mode: destination
// becomes the real server (DNAT), source becomes the balancer's own local
// address (SNAT) so the real server's return traffic routes back through
// this balancer instance rather than directly to the client (spec §4.4).
// Sequence numbers are shifted into the real server's sequence space
// (seqxlat.IngressAdjust), SACK edges follow, and — on the one-shot client-
// address insertion path — the packet buffer may grow.
func FNATIn(f *flow.Flow, packet []byte, opts Options) ([]byte, bool) {
	s, ok := parseSegment(packet, f.Family)
	if !ok {
		return packet, false
	}
	if f.Helper != nil && !f.Helper.PktIn(f, packet) {
		return packet, false
	}

	s.setSeq(seqxlat.IngressAdjust(f, s.seq()))
	options := s.options()
	tcpopt.RewriteSACK(options, func(edge uint32) uint32 { return seqxlat.IngressAdjust(f, edge) })

	if f.SynProxy != nil {
		f.SynProxy.Ingress(f, s.tcp())
	}

	// OQ2: applied unconditionally whenever configured, independent of
	// whether the client-address insertion below ends up running at all.
	if opts.MSSAdjustEntry {
		tcpopt.AdjustMSS(options, opts.MSSDelta)
	}
	if opts.TimestampRemoveEntry {
		tcpopt.EraseTimestamp(options)
	}

	s.setDstIP(f.DestAddr)
	s.setDstPort(f.DestPort)
	s.setSrcIP(f.LocalAddr)
	s.setSrcPort(f.LocalPort)

	packet = s.packet

	if opts.TOAEntry && !f.HasFlag(flow.FlagCIPInserted) {
		var widened []byte
		var inserted bool
		if f.Family == flow.FamilyV4 {
			widened, inserted = tcpopt.AppendClientAddrV4(packet, f.ClientAddr, f.ClientPort)
		} else {
			widened, inserted = tcpopt.AppendClientAddrV6(packet, f.ClientAddr, f.ClientPort, s.ipLen)
		}
		if inserted {
			packet = widened
			f.SetFlag(flow.FlagCIPInserted)
		}
	}

	s, ok = parseSegment(packet, f.Family)
	if !ok {
		return packet, false
	}
	finish(s)
	return packet, true
}

// FNATOut rewrites a real-server→balancer segment in FullNAT mode: source
// becomes the virtual service (so the client still believes it is talking
// to the VIP), destination becomes the real client, and the acknowledgment
// number is shifted back into the client's real sequence space
// (seqxlat.EgressAdjust).
//
// OQ1: if the SYN-proxy egress hook reports the segment should be dropped,
// this function returns immediately — the drop is terminal, enforced by the
// early return, never reaching the checksum recompute below.
func FNATOut(f *flow.Flow, packet []byte) ([]byte, bool) {
	s, ok := parseSegment(packet, f.Family)
	if !ok {
		return packet, false
	}

	if f.SynProxy != nil {
		if !f.SynProxy.Egress(f, s.tcp()) {
			return packet, false
		}
	}

	if f.Helper != nil && !f.Helper.PktOut(f, packet) {
		return packet, false
	}

	s.setAck(seqxlat.EgressAdjust(f, s.ack()))
	options := s.options()
	tcpopt.RewriteSACK(options, func(edge uint32) uint32 { return seqxlat.EgressAdjust(f, edge) })

	seqxlat.UpdateReverse(f, s.seq()+uint32(len(s.tcp())-s.dataOffset()), s.ack())

	s.setSrcIP(f.VirtualAddr)
	s.setSrcPort(f.VirtualPort)
	s.setDstIP(f.ClientAddr)
	s.setDstPort(f.ClientPort)

	finish(s)
	return packet, true
}
