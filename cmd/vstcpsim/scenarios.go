package main

import (
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vstcp/internal/appbind"
	"vstcp/internal/chksum"
	"vstcp/internal/flow"
	"vstcp/internal/fsm"
	"vstcp/internal/proto"
	"vstcp/internal/schedule"
	"vstcp/internal/seqxlat"
	"vstcp/internal/tcpopt"
)

const (
	flagFIN = 1 << 0
	flagSYN = 1 << 1
	flagRST = 1 << 2
	flagACK = 1 << 4
)

func newRunCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run one or all of the built-in end-to-end scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "all"
			if len(args) == 1 {
				name = args[0]
			}
			if name == "all" || all {
				for _, s := range scenarios {
					runScenario(s)
				}
				return nil
			}
			for _, s := range scenarios {
				if s.name == name {
					runScenario(s)
					return nil
				}
			}
			return fmt.Errorf("unknown scenario %q (try \"vstcpsim run all\")", name)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "run every scenario")
	return cmd
}

type scenario struct {
	name string
	run  func()
}

func runScenario(s scenario) { s.run() }

var scenarios = []scenario{
	{"fullnat-handshake", scenarioFullNATHandshake},
	{"sack-rewrite", scenarioSACKRewrite},
	{"state-normal-syn", scenarioStateNormalSyn},
	{"state-secure-synack-sticky", scenarioStateSecureSynAckSticky},
	{"stray-vip-drop", scenarioStrayVIPDrop},
	{"rst-on-expiry", scenarioRSTOnExpiry},
}

func newDescriptor(secure, synProxy bool) *proto.Descriptor {
	gate := &schedule.Gate{
		Lookup:   func(net.IP, uint16, flow.Family) (schedule.Service, bool) { return nil, false },
		Schedule: func(schedule.Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, false },
	}
	return proto.New(proto.Config{
		Secure:          secure,
		MSSAdjustEntry:  true,
		MSSDelta:        8,
		TOAEntry:        true,
		SynProxyEnabled: synProxy,
	}, appbind.NewTable(), gate, nil)
}

// buildIPv4TCP assembles a minimal, correctly-checksummed IPv4/TCP segment
// with no options, the same shape internal/rewrite's own tests use.
func buildIPv4TCP(src, dst net.IP, srcPort, dstPort uint16, seq, ack uint32, flags byte) []byte {
	packet := make([]byte, 40)
	packet[0] = 0x45
	packet[9] = 6
	copy(packet[12:16], src.To4())
	copy(packet[16:20], dst.To4())
	tcp := packet[20:]
	tcp[0], tcp[1] = byte(srcPort>>8), byte(srcPort)
	tcp[2], tcp[3] = byte(dstPort>>8), byte(dstPort)
	tcp[4], tcp[5], tcp[6], tcp[7] = byte(seq>>24), byte(seq>>16), byte(seq>>8), byte(seq)
	tcp[8], tcp[9], tcp[10], tcp[11] = byte(ack>>24), byte(ack>>16), byte(ack>>8), byte(ack)
	tcp[12] = 5 << 4
	tcp[13] = flags
	totalLen := uint16(len(packet))
	packet[2], packet[3] = byte(totalLen>>8), byte(totalLen)
	c := chksum.TCPv4(src, dst, tcp)
	tcp[16], tcp[17] = byte(c>>8), byte(c)
	return packet
}

func tcpAt(packet []byte) []byte { return packet[int(packet[0]&0x0f)*4:] }

func seqOf(tcp []byte) uint32 {
	return uint32(tcp[4])<<24 | uint32(tcp[5])<<16 | uint32(tcp[6])<<8 | uint32(tcp[7])
}

func ackOf(tcp []byte) uint32 {
	return uint32(tcp[8])<<24 | uint32(tcp[9])<<16 | uint32(tcp[10])<<8 | uint32(tcp[11])
}

func header(title string) { fmt.Printf("\n=== %s ===\n", title) }

func scenarioFullNATHandshake() {
	header("1. FullNAT three-way handshake")
	d := newDescriptor(false, false)

	client := net.ParseIP("1.1.1.1")
	vip := net.ParseIP("10.0.0.1")
	local := net.ParseIP("10.0.2.1")
	backend := net.ParseIP("10.0.1.1")

	f := &flow.Flow{
		ID:          uuid.NewString(),
		Family:      flow.FamilyV4,
		Mode:        flow.ModeFullNAT,
		ClientAddr:  client,
		ClientPort:  5000,
		VirtualAddr: vip,
		VirtualPort: 80,
		LocalAddr:   local,
		LocalPort:   40000,
		DestAddr:    backend,
		DestPort:    80,
	}

	seqxlat.Init(f, flow.StateNone, 100, func() uint32 { return 0x1000 })
	d.DebugPacket(f, "flow created")

	synIn := buildIPv4TCP(client, vip, 5000, 80, 100, 0, flagSYN)
	out, ok := d.FNATInHandler(f, synIn)
	if !ok {
		fmt.Println("FNATIn rejected the SYN")
		return
	}
	tcp := tcpAt(out)
	fmt.Printf("ingress: src=%s:%d dst=%s:%d seq=%d (expect init_seq=%d)\n",
		net.IP(out[12:16]), uint16(tcp[0])<<8|uint16(tcp[1]),
		net.IP(out[16:20]), uint16(tcp[2])<<8|uint16(tcp[3]),
		seqOf(tcp), f.FNAT.InitSeq)
	fmt.Printf("fdata_seq=%d delta=%d client-address-inserted=%v\n",
		f.FNAT.FDataSeq, f.FNAT.Delta, f.HasFlag(flow.FlagCIPInserted))

	synAck := buildIPv4TCP(backend, local, 80, 40000, 900, f.FNAT.InitSeq+1, flagSYN|flagACK)
	out, ok = d.FNATOutHandler(f, synAck)
	if !ok {
		fmt.Println("FNATOut rejected the SYN-ACK")
		return
	}
	tcp = tcpAt(out)
	fmt.Printf("egress: src=%s:%d dst=%s:%d ack=%d (expect 101)\n",
		net.IP(out[12:16]), uint16(tcp[0])<<8|uint16(tcp[1]),
		net.IP(out[16:20]), uint16(tcp[2])<<8|uint16(tcp[3]),
		ackOf(tcp))
}

func scenarioSACKRewrite() {
	header("2. SACK edge rewrite on an established flow")
	const delta = 0xDEADBEEF

	f := &flow.Flow{Family: flow.FamilyV4, Mode: flow.ModeFullNAT}
	f.FNAT = flow.FullNATSeq{Delta: delta, Initialized: true}

	left := uint32(5_000_000)
	right := left + 1460
	block := make([]byte, 10)
	block[0], block[1] = tcpopt.KindSACK, 10
	putU32(block[2:], left)
	putU32(block[6:], right)

	tcpopt.RewriteSACK(block, func(edge uint32) uint32 { return seqxlat.EgressAdjust(f, edge) })
	fmt.Printf("input block  [%d, %d]\n", left, right)
	fmt.Printf("output block [%d, %d] (expect [%d, %d])\n",
		readU32(block[2:]), readU32(block[6:]), left-delta, right-delta)
}

func putU32(b []byte, v uint32) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}

func readU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func scenarioStateNormalSyn() {
	header("3. Normal table, ingress SYN in NONE")
	d := newDescriptor(false, false)
	f := &flow.Flow{State: flow.StateNone}
	d.StateTransition(f, fsm.Input, fsm.ClassSyn)
	fmt.Printf("NONE --SYN--> %s (expect SYN_RECV)\n", d.StateName(f.State))
}

func scenarioStateSecureSynAckSticky() {
	header("4. Secure table, ingress SYN while in SYNACK")
	d := newDescriptor(true, false)
	f := &flow.Flow{State: flow.StateSynAck}
	d.StateTransition(f, fsm.Input, fsm.ClassSyn)
	fmt.Printf("SYNACK --SYN--> %s (expect SYNACK, sticky)\n", d.StateName(f.State))
}

func scenarioStrayVIPDrop() {
	header("5. Stray-VIP drop")
	dropped := false
	gate := &schedule.Gate{
		Lookup:      func(net.IP, uint16, flow.Family) (schedule.Service, bool) { return nil, false },
		Schedule:    func(schedule.Service) (net.IP, uint16, flow.Backend, bool) { return nil, 0, nil, false },
		LogStrayVIP: true,
		OnStrayVIP:  func(net.IP, uint16) { dropped = true },
	}
	vip := net.ParseIP("10.0.0.1")
	decision := gate.ConnSchedule(vip, 9999, flow.FamilyV4, fsm.ClassSyn)
	fmt.Printf("admitted=%v stray-vip-logged=%v (expect admitted=false, logged=true)\n", decision.Admitted, dropped)
}

func scenarioRSTOnExpiry() {
	header("6. RST on expiry (FullNAT, ESTABLISHED)")
	d := newDescriptor(false, false)

	client := net.ParseIP("1.1.1.1")
	vip := net.ParseIP("10.0.0.1")
	local := net.ParseIP("10.0.2.1")
	backend := net.ParseIP("10.0.1.1")
	const delta = 0x1000

	f := &flow.Flow{
		Family:      flow.FamilyV4,
		Mode:        flow.ModeFullNAT,
		State:       flow.StateEstablished,
		ClientAddr:  client,
		ClientPort:  5000,
		VirtualAddr: vip,
		VirtualPort: 80,
		LocalAddr:   local,
		LocalPort:   40000,
		DestAddr:    backend,
		DestPort:    80,
	}
	f.FNAT = flow.FullNATSeq{Delta: delta, Initialized: true}
	f.Rev = flow.ReverseSeq{EndSeq: 2_000_000, AckSeq: 3_000_000, HasAckSeq: true}

	toClient, toBackend, ok := d.ConnExpireHandler(f)
	if !ok {
		fmt.Println("Synthesize declined (no usable state)")
		return
	}
	fmt.Printf("RST-to-backend seq=%d (expect %d)\n", seqOf(tcpAt(toBackend)), f.Rev.AckSeq+delta)
	fmt.Printf("RST-to-client  seq=%d (expect %d)\n", seqOf(tcpAt(toClient)), f.Rev.EndSeq)
	fmt.Printf("checksum valid: backend=%v client=%v\n",
		chksum.VerifyTCPv4(net.IP(toBackend[12:16]), net.IP(toBackend[16:20]), tcpAt(toBackend)),
		chksum.VerifyTCPv4(net.IP(toClient[12:16]), net.IP(toClient[16:20]), tcpAt(toClient)))
}
