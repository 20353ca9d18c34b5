// Package list is a singly linked list whose nodes are allocated from a
// mempool arena.
package list

import (
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/exp/constraints"

	"github.com/xgzlucario/mempool"
)

// Node layout inside the arena.
//
//	+---------------+------------------+
//	|   next(u64)   |  value(sizeof T) |
//	+---------------+------------------+
const nextBytes = 8

var order = binary.LittleEndian

// Node refers to one element of a List. The zero Node is nil.
type Node struct {
	h mempool.Handle
}

// IsNil
func (n Node) IsNil() bool {
	return n.h.IsNil()
}

// List is a singly linked list of integers. One RWMutex guards the whole
// chain; it is always taken before the pool's own lock.
type List[T constraints.Integer] struct {
	mu   sync.RWMutex
	pool *mempool.Manager
	head mempool.Handle
	size int
}

// New returns an empty list backed by a fresh arena of capacity bytes.
// An unusable capacity leaves the list unable to insert.
func New[T constraints.Integer](capacity int) *List[T] {
	l := newList[T](&mempool.Manager{})
	l.pool.Init(capacity)
	return l
}

// NewWithOptions is like New but configures the arena from options.
func NewWithOptions[T constraints.Integer](options mempool.Options) (*List[T], error) {
	pool, err := mempool.New(options)
	if err != nil {
		return nil, err
	}
	return newList[T](pool), nil
}

func newList[T constraints.Integer](pool *mempool.Manager) *List[T] {
	var zero T
	return &List[T]{
		pool: pool,
		size: nextBytes + int(unsafe.Sizeof(zero)),
	}
}

// Pool returns the manager the nodes live in.
func (l *List[T]) Pool() *mempool.Manager {
	return l.pool
}

// NodeSize returns the number of arena bytes one node takes.
func (l *List[T]) NodeSize() int {
	return l.size
}

func (l *List[T]) newNode(v T, next mempool.Handle) (mempool.Handle, error) {
	h, err := l.pool.Alloc(l.size)
	if err != nil {
		return mempool.Nil, err
	}
	b := l.pool.Bytes(h)
	order.PutUint64(b, uint64(next))
	var buf [8]byte
	order.PutUint64(buf[:], uint64(v))
	copy(b[nextBytes:], buf[:l.size-nextBytes])
	return h, nil
}

func (l *List[T]) next(h mempool.Handle) mempool.Handle {
	b := l.pool.Bytes(h)
	if len(b) < l.size {
		return mempool.Nil
	}
	return mempool.Handle(order.Uint64(b))
}

func (l *List[T]) setNext(h, next mempool.Handle) {
	if b := l.pool.Bytes(h); len(b) >= l.size {
		order.PutUint64(b, uint64(next))
	}
}

func (l *List[T]) value(h mempool.Handle) (T, bool) {
	b := l.pool.Bytes(h)
	if len(b) < l.size {
		return 0, false
	}
	var buf [8]byte
	copy(buf[:], b[nextBytes:l.size])
	return T(order.Uint64(buf[:])), true
}

// Insert appends v at the tail.
func (l *List[T]) Insert(v T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, err := l.newNode(v, mempool.Nil)
	if err != nil {
		return err
	}
	if l.head.IsNil() {
		l.head = h
		return nil
	}
	cur := l.head
	for nx := l.next(cur); !nx.IsNil(); nx = l.next(cur) {
		cur = nx
	}
	l.setNext(cur, h)
	return nil
}

// InsertAfter links v right after n. A nil or freed n is a no-op.
func (l *List[T]) InsertAfter(n Node, v T) error {
	if n.IsNil() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pool.Size(n.h) < l.size {
		return nil
	}
	h, err := l.newNode(v, l.next(n.h))
	if err != nil {
		return err
	}
	l.setNext(n.h, h)
	return nil
}

// InsertBefore links v right before n. It is a no-op when the list is
// empty, n is nil or n is not in the list.
func (l *List[T]) InsertBefore(n Node, v T) error {
	if n.IsNil() {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head.IsNil() {
		return nil
	}
	if n.h == l.head {
		h, err := l.newNode(v, l.head)
		if err != nil {
			return err
		}
		l.head = h
		return nil
	}

	cur := l.head
	for !cur.IsNil() {
		nx := l.next(cur)
		if nx == n.h {
			h, err := l.newNode(v, n.h)
			if err != nil {
				return err
			}
			l.setNext(cur, h)
			return nil
		}
		cur = nx
	}
	return nil
}

// Delete removes the first node holding v and reports whether one was found.
func (l *List[T]) Delete(v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	var prev mempool.Handle
	for cur := l.head; !cur.IsNil(); cur = l.next(cur) {
		if val, _ := l.value(cur); val != v {
			prev = cur
			continue
		}
		nx := l.next(cur)
		if prev.IsNil() {
			l.head = nx
		} else {
			l.setNext(prev, nx)
		}
		l.pool.Free(cur)
		return true
	}
	return false
}

// Search returns the first node holding v, or a nil Node.
func (l *List[T]) Search(v T) Node {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for cur := l.head; !cur.IsNil(); cur = l.next(cur) {
		if val, _ := l.value(cur); val == v {
			return Node{cur}
		}
	}
	return Node{}
}

// Value returns the value stored in n.
func (l *List[T]) Value(n Node) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value(n.h)
}

// Next returns the node following n, or a nil Node.
func (l *List[T]) Next(n Node) Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Node{l.next(n.h)}
}

// Head
func (l *List[T]) Head() Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Node{l.head}
}

// Display formats the whole list as [1, 2, 3].
func (l *List[T]) Display() string {
	return l.DisplayRange(Node{}, Node{})
}

// DisplayRange formats the nodes from start to end, both inclusive.
// A nil start means the head, a nil end means the tail.
func (l *List[T]) DisplayRange(start, end Node) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var sb strings.Builder
	sb.WriteByte('[')

	cur := start.h
	if cur.IsNil() {
		cur = l.head
	}
	var stop mempool.Handle
	if !end.IsNil() {
		stop = l.next(end.h)
	}
	for first := true; !cur.IsNil() && cur != stop; cur = l.next(cur) {
		v, ok := l.value(cur)
		if !ok {
			break
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(format(v))
	}

	sb.WriteByte(']')
	return sb.String()
}

func format[T constraints.Integer](v T) string {
	if T(0)-1 < 0 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatUint(uint64(v), 10)
}

// WriteTo writes Display to w.
func (l *List[T]) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, l.Display())
	return int64(n), err
}

// Count returns the number of nodes.
func (l *List[T]) Count() (n int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for cur := l.head; !cur.IsNil(); cur = l.next(cur) {
		n++
	}
	return
}

// Values returns the values in list order.
func (l *List[T]) Values() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var vals []T
	for cur := l.head; !cur.IsNil(); cur = l.next(cur) {
		v, _ := l.value(cur)
		vals = append(vals, v)
	}
	return vals
}

// Cleanup frees every node and releases the arena.
func (l *List[T]) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for cur := l.head; !cur.IsNil(); {
		nx := l.next(cur)
		l.pool.Free(cur)
		cur = nx
	}
	l.head = mempool.Nil
	l.pool.Deinit()
}
