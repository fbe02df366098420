// Package proto assembles the protocol descriptor (C9): the single vtable
// the framework's generic virtual-server core holds one of per protocol
// (TCP, UDP, ...) and calls through for every operation this module
// implements. It does no work of its own — every field is either a thin
// wrapper around one of the other internal packages or a direct reference
// to one of their functions.
package proto

import (
	"net"
	"time"

	"vstcp/internal/appbind"
	"vstcp/internal/flow"
	"vstcp/internal/fsm"
	"vstcp/internal/rewrite"
	"vstcp/internal/rst"
	"vstcp/internal/schedule"
)

// Logger is the minimal structured-logging surface DebugPacket writes
// through; internal/logger.Manager satisfies it. Kept as a narrow
// interface here so this package never imports the logging stack directly.
type Logger interface {
	Debugf(format string, args ...interface{})
}

// Descriptor is the TCP protocol vtable (spec §6's external interfaces,
// unified). Every function field corresponds to one named operation of the
// C9 component.
type Descriptor struct {
	Name string

	Init func() error
	Exit func()

	RegisterApp   func(h flow.Helper) bool
	UnregisterApp func(h flow.Helper)

	ConnSchedule func(vip net.IP, vport uint16, family flow.Family, class fsm.FlagClass) schedule.Decision

	SNATHandler    func(f *flow.Flow, packet []byte) ([]byte, bool)
	DNATHandler    func(f *flow.Flow, packet []byte) ([]byte, bool)
	FNATInHandler  func(f *flow.Flow, packet []byte) ([]byte, bool)
	FNATOutHandler func(f *flow.Flow, packet []byte) ([]byte, bool)

	CSumCheck func(f *flow.Flow, packet []byte) bool

	StateName       func(s flow.State) string
	StateTransition func(f *flow.Flow, dir fsm.Direction, class fsm.FlagClass)

	AppConnBind func(f *flow.Flow) bool

	DebugPacket func(f *flow.Flow, msg string)

	TimeoutChange   func(secure bool)
	SetStateTimeout func(s flow.State, d time.Duration)

	ConnExpireHandler func(f *flow.Flow) (toClient, toBackend []byte, ok bool)

	// FlowLookup and FlowLookupOrCreate are delegated entirely to the
	// framework's flow table (spec §1: flow-table management is out of
	// scope for this module). The descriptor carries them only so a caller
	// holding a *Descriptor has one place to reach every collaborator this
	// protocol module needs, without the module itself depending on a flow
	// table implementation.
	FlowLookup        func(family flow.Family, client net.IP, clientPort uint16, vip net.IP, vport uint16) (*flow.Flow, bool)
	FlowLookupOrCreate func(family flow.Family, client net.IP, clientPort uint16, vip net.IP, vport uint16) (*flow.Flow, bool)
}

// Config bundles the runtime knobs New needs to wire rewrite.Options and
// the scheduling gate; it mirrors internal/config.TCPConfig's fields
// relevant to this descriptor.
type Config struct {
	Secure               bool
	MSSAdjustEntry       bool
	MSSDelta             uint16
	TimestampRemoveEntry bool
	TOAEntry             bool
	SynProxyEnabled      bool
	LogStrayVIP          bool
}

// New assembles a Descriptor wired to real implementations: appTable for
// C8, gate for C6, and log (nillable) for DebugPacket.
func New(cfg Config, appTable *appbind.Table, gate *schedule.Gate, log Logger) *Descriptor {
	rwOpts := rewrite.Options{
		MSSAdjustEntry:       cfg.MSSAdjustEntry,
		MSSDelta:             cfg.MSSDelta,
		TimestampRemoveEntry: cfg.TimestampRemoveEntry,
		TOAEntry:             cfg.TOAEntry,
	}
	gate.SynProxyEnabled = cfg.SynProxyEnabled
	gate.LogStrayVIP = cfg.LogStrayVIP
	fsm.SetSecure(cfg.Secure)

	d := &Descriptor{Name: "TCP"}

	d.Init = func() error { return nil }
	d.Exit = func() {}

	d.RegisterApp = appTable.Register
	d.UnregisterApp = appTable.Unregister

	d.ConnSchedule = func(vip net.IP, vport uint16, family flow.Family, class fsm.FlagClass) schedule.Decision {
		return gate.ConnSchedule(vip, vport, family, class)
	}

	d.SNATHandler = rewrite.SNATOut
	d.DNATHandler = rewrite.DNATIn
	d.FNATInHandler = func(f *flow.Flow, packet []byte) ([]byte, bool) {
		return rewrite.FNATIn(f, packet, rwOpts)
	}
	d.FNATOutHandler = rewrite.FNATOut

	d.CSumCheck = func(f *flow.Flow, packet []byte) bool {
		return verifyChecksum(packet, f.Family)
	}

	d.StateName = func(s flow.State) string { return s.String() }
	d.StateTransition = fsm.Transition

	d.AppConnBind = appTable.Bind

	d.DebugPacket = func(f *flow.Flow, msg string) {
		if log == nil {
			return
		}
		log.Debugf("flow=%s %s: state=%s", f.ID, msg, f.State)
	}

	d.TimeoutChange = fsm.SetSecure
	d.SetStateTimeout = fsm.SetTimeout

	d.ConnExpireHandler = rst.Synthesize

	return d
}
