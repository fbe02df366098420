package seqxlat

import (
	"testing"

	"vstcp/internal/flow"
)

func TestInitComputesDeltaAndFData(t *testing.T) {
	f := &flow.Flow{}
	clientISN := uint32(1000)
	cat := Init(f, flow.StateNone, clientISN, func() uint32 { return 5000 })

	if cat != ReuseNone {
		t.Errorf("expected ReuseNone for a fresh flow, got %v", cat)
	}
	if f.FNAT.Delta != 4000 {
		t.Errorf("expected delta 4000, got %d", f.FNAT.Delta)
	}
	if f.FNAT.FDataSeq != 1001 {
		t.Errorf("expected FDataSeq 1001, got %d", f.FNAT.FDataSeq)
	}
}

func TestInitReuseCategoryFollowsPriorState(t *testing.T) {
	f := &flow.Flow{}
	if cat := Init(f, flow.StateSynRecv, 1, func() uint32 { return 2 }); cat != ReuseFromSynRecv {
		t.Errorf("expected ReuseFromSynRecv, got %v", cat)
	}
	if cat := Init(f, flow.StateTimeWait, 1, func() uint32 { return 2 }); cat != ReuseFromOther {
		t.Errorf("expected ReuseFromOther, got %v", cat)
	}
}

func TestIngressEgressRoundTrip(t *testing.T) {
	f := &flow.Flow{}
	Init(f, flow.StateNone, 1000, func() uint32 { return 9000 })

	clientSeq := uint32(1050)
	rsSeq := IngressAdjust(f, clientSeq)
	if rsSeq != 9050 {
		t.Errorf("expected ingress-adjusted seq 9050, got %d", rsSeq)
	}

	rsAck := uint32(9050)
	clientAck := EgressAdjust(f, rsAck)
	if clientAck != 1050 {
		t.Errorf("expected egress-adjusted ack 1050, got %d", clientAck)
	}
}

func TestUpdateReverseIsMonotonic(t *testing.T) {
	f := &flow.Flow{}
	UpdateReverse(f, 100, 50)
	UpdateReverse(f, 80, 40) // stale retransmit, must not regress
	if f.Rev.EndSeq != 100 || f.Rev.AckSeq != 50 {
		t.Errorf("stale update regressed reverse state: endSeq=%d ackSeq=%d", f.Rev.EndSeq, f.Rev.AckSeq)
	}
	UpdateReverse(f, 200, 150)
	if f.Rev.EndSeq != 200 || f.Rev.AckSeq != 150 {
		t.Errorf("expected forward update to advance reverse state, got endSeq=%d ackSeq=%d", f.Rev.EndSeq, f.Rev.AckSeq)
	}
}
