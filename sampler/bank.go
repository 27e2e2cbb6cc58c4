package sampler

import (
	"sync"

	"github.com/whyrusleeping/drumkit/internal/logger"
)

// Entry is one line of the external binding list.
type Entry struct {
	Key      string
	Resource Resource
}

// Binding associates a canonical key with a playable resource.
type Binding struct {
	Key      string
	Resource Resource

	lk          sync.Mutex
	tapAttached bool
}

// TapAttached reports whether the binding's resource feeds the analyser.
func (b *Binding) TapAttached() bool {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.tapAttached
}

type TapResult int

const (
	TapAttached TapResult = iota
	TapAlreadyAttached
	TapFailed
)

func (r TapResult) String() string {
	switch r {
	case TapAttached:
		return "attached"
	case TapAlreadyAttached:
		return "already-attached"
	default:
		return "failed"
	}
}

// Bank owns the key to resource mapping. The set of bindings is fixed at
// construction; only the per-binding tap flag changes afterwards.
type Bank struct {
	bindings map[string]*Binding
	order    []string
	log      *logger.Logger
}

// NewBank builds a bank from the binding list. Keys are normalized and later
// entries replace earlier ones with the same key. Entries whose key
// normalizes to "" or that have no resource are skipped.
func NewBank(entries []Entry, log *logger.Logger) *Bank {
	if log == nil {
		log = logger.Discard()
	}

	b := &Bank{
		bindings: make(map[string]*Binding),
		log:      log,
	}

	for _, e := range entries {
		key := Normalize(e.Key)
		if key == "" || e.Resource == nil {
			log.Warnf("skipping binding %q: no usable key or sample", e.Key)
			continue
		}

		if _, ok := b.bindings[key]; ok {
			log.Debugf("binding %q replaces an earlier binding for %q", e.Key, key)
		} else {
			b.order = append(b.order, key)
		}
		b.bindings[key] = &Binding{Key: key, Resource: e.Resource}
	}

	return b
}

// Lookup finds the binding for a canonical key.
func (b *Bank) Lookup(key string) (*Binding, bool) {
	if key == "" {
		return nil, false
	}
	bd, ok := b.bindings[key]
	return bd, ok
}

// Keys returns canonical keys in binding-list order.
func (b *Bank) Keys() []string {
	return append([]string(nil), b.order...)
}

func (b *Bank) Bindings() []*Binding {
	out := make([]*Binding, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.bindings[k])
	}
	return out
}

func (b *Bank) Len() int {
	return len(b.order)
}

// AttachTap routes the binding's resource into g's analysis path. The check
// of the tap flag, the attachment and the flag update happen under the
// binding's lock, so overlapping calls attach at most once. A failure leaves
// the binding usable for direct playback.
func (b *Bank) AttachTap(bd *Binding, g *Graph) (TapResult, error) {
	bd.lk.Lock()
	defer bd.lk.Unlock()

	if bd.tapAttached {
		return TapAlreadyAttached, nil
	}

	if err := g.tap(bd.Resource); err != nil {
		b.log.Warnf("key %q will play without visualization: %v", bd.Key, err)
		return TapFailed, err
	}

	bd.tapAttached = true
	return TapAttached, nil
}
