package appbind

import (
	"testing"

	"vstcp/internal/flow"
)

type fakeHelper struct {
	port              uint16
	acquired, released int
	initOK            bool
}

func (h *fakeHelper) Port() uint16                          { return h.port }
func (h *fakeHelper) InitConn(f *flow.Flow) bool             { return h.initOK }
func (h *fakeHelper) PktIn(f *flow.Flow, packet []byte) bool { return true }
func (h *fakeHelper) PktOut(f *flow.Flow, packet []byte) bool { return true }
func (h *fakeHelper) Acquire()                               { h.acquired++ }
func (h *fakeHelper) Release()                               { h.released++ }

func TestRegisterRefusesDuplicatePort(t *testing.T) {
	tbl := NewTable()
	h1 := &fakeHelper{port: 21, initOK: true}
	h2 := &fakeHelper{port: 21, initOK: true}
	if !tbl.Register(h1) {
		t.Fatalf("expected first registration on port 21 to succeed")
	}
	if tbl.Register(h2) {
		t.Errorf("expected a second registration on the same port to be refused")
	}
}

func TestBindOnlyForNATMode(t *testing.T) {
	tbl := NewTable()
	h := &fakeHelper{port: 21, initOK: true}
	tbl.Register(h)

	natFlow := &flow.Flow{Mode: flow.ModeNAT, VirtualPort: 21}
	if !tbl.Bind(natFlow) {
		t.Fatalf("expected Bind to succeed for a NAT-mode flow")
	}
	if natFlow.Helper != h || h.acquired != 1 {
		t.Errorf("expected helper bound and acquired once")
	}

	fnatFlow := &flow.Flow{Mode: flow.ModeFullNAT, VirtualPort: 21}
	if tbl.Bind(fnatFlow) {
		t.Errorf("expected Bind to refuse a FullNAT-mode flow")
	}
}

func TestBindReleasesOnInitConnFailure(t *testing.T) {
	tbl := NewTable()
	h := &fakeHelper{port: 21, initOK: false}
	tbl.Register(h)

	f := &flow.Flow{Mode: flow.ModeNAT, VirtualPort: 21}
	if tbl.Bind(f) {
		t.Fatalf("expected Bind to fail when InitConn refuses")
	}
	if h.acquired != 1 || h.released != 1 {
		t.Errorf("expected acquire then release on InitConn failure, got acquired=%d released=%d", h.acquired, h.released)
	}
	if f.Helper != nil {
		t.Errorf("expected no helper left bound after InitConn failure")
	}
}

func TestReleaseClearsBinding(t *testing.T) {
	tbl := NewTable()
	h := &fakeHelper{port: 21, initOK: true}
	tbl.Register(h)
	f := &flow.Flow{Mode: flow.ModeNAT, VirtualPort: 21}
	tbl.Bind(f)

	Release(f)
	if f.Helper != nil || h.released != 1 {
		t.Errorf("expected Release to clear the binding and release the helper once")
	}
}
