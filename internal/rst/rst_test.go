package rst

import (
	"net"
	"testing"

	"vstcp/internal/chksum"
	"vstcp/internal/flow"
)

func baseFlow() *flow.Flow {
	return &flow.Flow{
		Family:      flow.FamilyV4,
		Mode:        flow.ModeFullNAT,
		ClientAddr:  net.ParseIP("203.0.113.10"),
		ClientPort:  40000,
		VirtualAddr: net.ParseIP("198.51.100.1"),
		VirtualPort: 80,
		LocalAddr:   net.ParseIP("10.0.0.1"),
		LocalPort:   9000,
		DestAddr:    net.ParseIP("10.0.0.5"),
		DestPort:    8080,
	}
}

func TestSynthesizeFromReverseState(t *testing.T) {
	f := baseFlow()
	f.FNAT = flow.FullNATSeq{InitSeq: 9000, Delta: 8000, Initialized: true}
	f.Rev = flow.ReverseSeq{EndSeq: 9500, AckSeq: 1200, HasAckSeq: true}

	toClient, toBackend, ok := Synthesize(f)
	if !ok {
		t.Fatalf("expected Synthesize to succeed with reverse-path state present")
	}
	if toClient == nil || toBackend == nil {
		t.Fatalf("expected exactly two packets, got toClient=%v toBackend=%v", toClient, toBackend)
	}
	if !chksum.VerifyTCPv4(net.IP(toClient[12:16]), net.IP(toClient[16:20]), toClient[20:]) {
		t.Errorf("toClient RST fails checksum verification")
	}
	if !chksum.VerifyTCPv4(net.IP(toBackend[12:16]), net.IP(toBackend[16:20]), toBackend[20:]) {
		t.Errorf("toBackend RST fails checksum verification")
	}
}

func TestSynthesizeFallsBackToQueuedAck(t *testing.T) {
	f := baseFlow()
	f.FNAT = flow.FullNATSeq{InitSeq: 9000, Delta: 8000, Initialized: true}

	queued := make([]byte, 20)
	queued[4], queued[5], queued[6], queued[7] = 0, 0, 0x03, 0xe9 // seq 1001
	queued[8], queued[9], queued[10], queued[11] = 0, 0, 0x23, 0x29 // ack 9001
	f.AckQueue = [][]byte{queued}

	_, _, ok := Synthesize(f)
	if !ok {
		t.Fatalf("expected Synthesize to fall back to the queued ACK packet")
	}
	if len(f.AckQueue) != 1 {
		t.Errorf("expected Synthesize to requeue the peeked ACK packet, queue len=%d", len(f.AckQueue))
	}
}

func TestSynthesizeFailsWithNoState(t *testing.T) {
	f := baseFlow()
	_, _, ok := Synthesize(f)
	if ok {
		t.Errorf("expected Synthesize to fail with neither reverse state nor a queued ACK")
	}
}

func TestSynthesizeRefusesDirectMode(t *testing.T) {
	f := baseFlow()
	f.Mode = flow.ModeDirect
	f.Rev = flow.ReverseSeq{EndSeq: 1, AckSeq: 1, HasAckSeq: true}
	_, _, ok := Synthesize(f)
	if ok {
		t.Errorf("expected Synthesize to refuse direct-routing flows")
	}
}
