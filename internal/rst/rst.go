// Package rst implements the RST synthesiser (C7): when a flow expires
// without a clean four-way close, this package builds the RST segment(s)
// needed to tell both the client and the real server the connection is
// gone, so neither side is left holding a half-open socket past its real
// lifetime. Exactly zero or two packets are ever produced for a call to
// Synthesize — never one alone — matching spec §8's packet-count invariant.
//
// Two seq/ack sources are used depending on how far the flow got:
//   - a half-open flow (no reverse-path data ever arrived from the real
//     server) falls back to the last queued client ACK segment, the way the
//     SYN-proxy's held-back ACK queue exists for exactly this purpose
//     (spec §4.7);
//   - a flow that reached ESTABLISHED uses the stored reverse-path
//     bookkeeping (internal/seqxlat's Rev.EndSeq/Rev.AckSeq) instead.
package rst

import (
	"encoding/binary"
	"net"

	"vstcp/internal/chksum"
	"vstcp/internal/flow"
	"vstcp/internal/seqxlat"
)

const (
	flagACK = 1 << 4
	flagRST = 1 << 2
)

// Synthesize builds the RST-to-client and RST-to-backend segments for an
// expiring flow. ok is false when there is no usable seq/ack basis at all
// (a flow that never got past its very first SYN, with nothing queued) or
// when the flow is in direct-routing mode, where this balancer is not on
// the return path and has no standing to speak for the real server.
func Synthesize(f *flow.Flow) (toClient, toBackend []byte, ok bool) {
	if f.Mode == flow.ModeDirect {
		return nil, nil, false
	}

	var clientSeq, clientAck, backendSeq, backendAck uint32

	switch {
	case f.Rev.HasAckSeq:
		// Established path: Rev.EndSeq is the real server's own sequence
		// position, never renumbered by FullNAT (spec's egress handler only
		// translates the ack field); Rev.AckSeq was captured after FullNAT's
		// ack translation, so it is already expressed in the client's
		// sequence space. Translating it back with IngressAdjust recovers
		// the value the real server would recognize.
		clientSeq = f.Rev.EndSeq
		clientAck = f.Rev.AckSeq
		backendSeq = seqxlat.IngressAdjust(f, f.Rev.AckSeq)
		backendAck = f.Rev.EndSeq
	default:
		pkt, has := f.PeekAckQueueHead()
		if !has {
			return nil, nil, false
		}
		f.RequeueAckHead(pkt)
		if len(pkt) < 12 {
			return nil, nil, false
		}
		qSeq := binary.BigEndian.Uint32(pkt[4:8])
		qAck := binary.BigEndian.Uint32(pkt[8:12])
		clientSeq = qAck
		clientAck = qSeq
		backendSeq = seqxlat.IngressAdjust(f, qSeq)
		backendAck = qAck
	}

	toClient = build(f.Family, f.VirtualAddr, f.VirtualPort, f.ClientAddr, f.ClientPort, clientSeq, clientAck)

	var backendSrc net.IP
	var backendSrcPort uint16
	switch f.Mode {
	case flow.ModeFullNAT:
		backendSrc, backendSrcPort = f.LocalAddr, f.LocalPort
	case flow.ModeNAT:
		backendSrc, backendSrcPort = f.ClientAddr, f.ClientPort
	}
	toBackend = build(f.Family, backendSrc, backendSrcPort, f.DestAddr, f.DestPort, backendSeq, backendAck)

	return toClient, toBackend, true
}

// build assembles a minimal RST|ACK segment with no options and no
// payload, and fills in both checksums.
func build(family flow.Family, srcIP net.IP, srcPort uint16, dstIP net.IP, dstPort uint16, seq, ack uint32) []byte {
	ipLen := 20
	if family == flow.FamilyV6 {
		ipLen = 40
	}
	packet := make([]byte, ipLen+20)
	tcp := packet[ipLen:]

	binary.BigEndian.PutUint16(tcp[0:2], srcPort)
	binary.BigEndian.PutUint16(tcp[2:4], dstPort)
	binary.BigEndian.PutUint32(tcp[4:8], seq)
	binary.BigEndian.PutUint32(tcp[8:12], ack)
	tcp[12] = 5 << 4
	tcp[13] = flagRST | flagACK
	binary.BigEndian.PutUint16(tcp[14:16], 0) // window: a closing RST carries no flow-control meaning

	if family == flow.FamilyV4 {
		packet[0] = 0x45
		packet[8] = 64 // TTL
		packet[9] = 6  // protocol TCP
		binary.BigEndian.PutUint16(packet[2:4], uint16(len(packet)))
		copy(packet[12:16], srcIP.To4())
		copy(packet[16:20], dstIP.To4())
		c := chksum.TCPv4(srcIP, dstIP, tcp)
		binary.BigEndian.PutUint16(tcp[16:18], c)
		packet[10], packet[11] = 0, 0
		ipc := chksum.Checksum(packet[:20])
		packet[10], packet[11] = byte(ipc>>8), byte(ipc)
	} else {
		packet[6] = 6  // next header TCP
		packet[7] = 64 // hop limit
		binary.BigEndian.PutUint16(packet[4:6], 20)
		copy(packet[8:24], srcIP.To16())
		copy(packet[24:40], dstIP.To16())
		c := chksum.TCPv6(srcIP, dstIP, tcp)
		binary.BigEndian.PutUint16(tcp[16:18], c)
	}

	return packet
}
