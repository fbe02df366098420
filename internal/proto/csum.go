package proto

import (
	"net"

	"vstcp/internal/chksum"
	"vstcp/internal/flow"
)

// verifyChecksum implements CSumCheck (C9, delegating to C1): verification
// on input, independent of any rewrite handler. It re-derives the IP/TCP
// header offsets itself rather than depending on internal/rewrite's
// unexported segment type, since this is the one place the descriptor
// needs to inspect a packet without also mutating it.
func verifyChecksum(packet []byte, family flow.Family) bool {
	var ipLen int
	var src, dst net.IP
	switch family {
	case flow.FamilyV4:
		if len(packet) < 20 {
			return false
		}
		ipLen = int(packet[0]&0x0f) * 4
		if ipLen < 20 || len(packet) < ipLen {
			return false
		}
		src, dst = net.IP(packet[12:16]), net.IP(packet[16:20])
	case flow.FamilyV6:
		ipLen = 40
		if len(packet) < ipLen {
			return false
		}
		src, dst = net.IP(packet[8:24]), net.IP(packet[24:40])
	default:
		return false
	}
	tcp := packet[ipLen:]
	if len(tcp) < 20 {
		return false
	}
	if family == flow.FamilyV4 {
		return chksum.VerifyTCPv4(src, dst, tcp)
	}
	return chksum.VerifyTCPv6(src, dst, tcp)
}
