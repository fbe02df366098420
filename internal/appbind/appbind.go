// Package appbind implements application-layer helper binding (C8): a
// small hash table of registered flow.Helper implementations keyed by port,
// and the Bind call that attaches one to a newly created flow. Concrete
// helper bodies (FTP-style ALG rewriting) are an explicit non-goal of this
// module (spec §1) — this package only manages registration and the
// acquire/release lifecycle around whichever Helper the framework supplies.
package appbind

import (
	"sync"

	"vstcp/internal/flow"
)

const numBuckets = 16

func bucketFor(port uint16) int {
	return int((port>>4)^port) & (numBuckets - 1)
}

// Table is the helper registration table. The zero value is not usable;
// construct with NewTable.
type Table struct {
	mu      sync.RWMutex
	buckets [numBuckets][]flow.Helper
}

// NewTable returns an empty helper table.
func NewTable() *Table {
	return &Table{}
}

// Register adds a helper, keyed by its own declared port. Returns false if
// a helper is already registered for that port — spec §4.8's "duplicate-port
// registration refusal": a port serves at most one helper.
func (t *Table) Register(h flow.Helper) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := bucketFor(h.Port())
	for _, existing := range t.buckets[b] {
		if existing.Port() == h.Port() {
			return false
		}
	}
	t.buckets[b] = append(t.buckets[b], h)
	return true
}

// Unregister removes a previously registered helper.
func (t *Table) Unregister(h flow.Helper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := bucketFor(h.Port())
	bucket := t.buckets[b]
	for i, existing := range bucket {
		if existing.Port() == h.Port() {
			t.buckets[b] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

// lookup returns the helper registered for port, if any.
func (t *Table) lookup(port uint16) (flow.Helper, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, h := range t.buckets[bucketFor(port)] {
		if h.Port() == port {
			return h, true
		}
	}
	return nil, false
}

// Bind attaches a registered helper to a newly created flow, keyed by the
// flow's virtual port — not its destination port (spec §12, resolved from
// the original kernel source's tcp_app_conn_bind, which keys off cp->vport).
// Binding only happens for NAT-mode flows: FullNAT and direct-routing flows
// never carry an ALG binding (spec §4.8). Returns false if no helper is
// registered for the port, or the flow is not in NAT mode; true means the
// helper's InitConn ran and its refcount was acquired.
func (t *Table) Bind(f *flow.Flow) bool {
	if f.Mode != flow.ModeNAT {
		return false
	}
	h, ok := t.lookup(f.VirtualPort)
	if !ok {
		return false
	}
	h.Acquire()
	if !h.InitConn(f) {
		h.Release()
		return false
	}
	f.Helper = h
	return true
}

// Release drops the flow's bound helper's refcount, if any, and clears the
// binding. Safe to call on a flow with no bound helper.
func Release(f *flow.Flow) {
	if f.Helper == nil {
		return
	}
	f.Helper.Release()
	f.Helper = nil
}
