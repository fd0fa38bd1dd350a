// Package symtab provides the process-wide name→symbol mapping.
//
// Growth policy (rehash size/threshold) is user-configurable via
// functional options rather than hard-coded constants.
package symtab

import (
	"strings"
	"sync/atomic"

	"github.com/awesome-interesting-projects/kiss/internal/object"
)

const (
	defaultRehashSize      = 1.5
	defaultRehashThreshold = 0.8
	defaultInitialCapacity = 64
)

// Table is the symbol table: a hash structure keyed by string content.
// It is not safe for concurrent use — the interpreter core is
// single-threaded cooperative.
type Table struct {
	buckets         [][]*object.Symbol
	count           int
	rehashSize      float64
	rehashThreshold float64
	gensymCounter   uint64
}

// Option configures a Table at construction time.
type Option func(*Table)

// WithRehashSize sets the growth factor applied when the table is
// resized (default 1.5).
func WithRehashSize(factor float64) Option {
	return func(t *Table) { t.rehashSize = factor }
}

// WithRehashThreshold sets the load factor above which the table grows
// (default 0.8).
func WithRehashThreshold(threshold float64) Option {
	return func(t *Table) { t.rehashThreshold = threshold }
}

// New creates a symbol table pre-populated with the nil and t
// singletons, so that intern("nil") and intern("t") always return the
// canonical identity-unique instances.
func New(opts ...Option) *Table {
	t := &Table{
		buckets:         make([][]*object.Symbol, defaultInitialCapacity),
		rehashSize:      defaultRehashSize,
		rehashThreshold: defaultRehashThreshold,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.insert(object.Nil)
	t.insert(object.T)
	return t
}

func fnvHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func (t *Table) bucketIndex(name string) int {
	return int(fnvHash(name) % uint64(len(t.buckets)))
}

// Intern returns the existing symbol for name, or allocates and
// registers a new one. Names beginning with ':' are marked as
// self-evaluating keywords at intern time and their value slot is set
// to themselves (self-evaluating keywords).
func (t *Table) Intern(name string) *object.Symbol {
	idx := t.bucketIndex(name)
	for _, s := range t.buckets[idx] {
		if s.Name == name {
			return s
		}
	}
	// Value and Function start unbound (Go nil), distinct from the
	// Nil *object*; see internal/environment for the lookup rules that
	// rely on this distinction.
	sym := &object.Symbol{Name: name, Interned: true, Plist: object.Nil}
	if strings.HasPrefix(name, ":") {
		sym.Keyword = true
		sym.Value = sym
	}
	t.insert(sym)
	return sym
}

func (t *Table) insert(sym *object.Symbol) {
	idx := t.bucketIndex(sym.Name)
	t.buckets[idx] = append(t.buckets[idx], sym)
	t.count++
	if float64(t.count) > t.rehashThreshold*float64(len(t.buckets)) {
		t.grow()
	}
}

func (t *Table) grow() {
	newSize := int(float64(len(t.buckets)) * t.rehashSize)
	if newSize <= len(t.buckets) {
		newSize = len(t.buckets) + 1
	}
	newBuckets := make([][]*object.Symbol, newSize)
	for _, bucket := range t.buckets {
		for _, sym := range bucket {
			idx := int(fnvHash(sym.Name) % uint64(newSize))
			newBuckets[idx] = append(newBuckets[idx], sym)
		}
	}
	t.buckets = newBuckets
}

// Find looks up name without interning; returns (symbol, true) if present.
func (t *Table) Find(name string) (*object.Symbol, bool) {
	idx := t.bucketIndex(name)
	for _, s := range t.buckets[idx] {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Gensym produces a fresh uninterned symbol with a monotone 64-bit
// counter baked into its printed name. Gensyms are never placed in the
// table, so two gensyms whose printed names coincide after counter
// wraparound (which a 64-bit counter makes practically impossible)
// remain distinct objects by Go pointer identity.
func (t *Table) Gensym(prefix string) *object.Symbol {
	n := atomic.AddUint64(&t.gensymCounter, 1)
	if prefix == "" {
		prefix = "g"
	}
	return &object.Symbol{
		Name:     prefix + formatUint(n),
		Interned: false,
		Plist:    object.Nil,
	}
}

func formatUint(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// Size returns the number of interned symbols.
func (t *Table) Size() int { return t.count }
