package medhist

import "math"

// nilIdx marks a missing child or an empty free list.
const nilIdx int32 = -1

// maxNodes bounds the arena so that slot indexes fit in an int32.
const maxNodes = math.MaxInt32

type node[V any] struct {
	value       V
	count       uint64
	left, right int32
	height      int8
}

// tree is an AVL tree of distinct values stored in a single arena slice.
// Released slots are chained through their left index into a free list and
// reused before the arena grows. Dropping the tree drops every node at once.
type tree[V any] struct {
	nodes []node[V]
	root  int32
	free  int32
	size  int
	cmp   Comparator[V]
}

func newTree[V any](cmp Comparator[V]) tree[V] {
	return tree[V]{root: nilIdx, free: nilIdx, cmp: cmp}
}

// full reports whether n more distinct values would exhaust the arena.
func (t *tree[V]) full(n int) bool {
	return t.size+n > maxNodes
}

// get returns the slot holding a value equivalent to v, or nilIdx.
func (t *tree[V]) get(v V) int32 {
	i := t.root
	for i != nilIdx {
		c := t.cmp(v, t.nodes[i].value)
		switch {
		case c < 0:
			i = t.nodes[i].left
		case c > 0:
			i = t.nodes[i].right
		default:
			return i
		}
	}
	return nilIdx
}

// put links a new node for v with count 1 and returns its slot.
// v must not be present.
func (t *tree[V]) put(v V) int32 {
	var slot int32
	t.root = t.insert(t.root, v, &slot)
	t.size++
	return slot
}

// delete unlinks the node equivalent to v and recycles its slot.
// v must be present.
func (t *tree[V]) delete(v V) {
	t.root = t.remove(t.root, v)
	t.size--
}

// ascend visits slots in ascending order until visit returns false.
func (t *tree[V]) ascend(visit func(i int32) bool) {
	stack := make([]int32, 0, 2*int(t.height(t.root)))
	i := t.root
	for i != nilIdx || len(stack) > 0 {
		for i != nilIdx {
			stack = append(stack, i)
			i = t.nodes[i].left
		}
		i = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(i) {
			return
		}
		i = t.nodes[i].right
	}
}

func (t *tree[V]) alloc(v V) int32 {
	n := node[V]{value: v, count: 1, left: nilIdx, right: nilIdx, height: 1}
	if t.free != nilIdx {
		i := t.free
		t.free = t.nodes[i].left
		t.nodes[i] = n
		return i
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *tree[V]) release(i int32) {
	t.nodes[i] = node[V]{left: t.free, right: nilIdx}
	t.free = i
}

// insert may grow the arena, so callers store its result through a fresh
// index expression rather than a pointer taken beforehand.
func (t *tree[V]) insert(i int32, v V, slot *int32) int32 {
	if i == nilIdx {
		*slot = t.alloc(v)
		return *slot
	}
	if t.cmp(v, t.nodes[i].value) < 0 {
		l := t.insert(t.nodes[i].left, v, slot)
		t.nodes[i].left = l
	} else {
		r := t.insert(t.nodes[i].right, v, slot)
		t.nodes[i].right = r
	}
	return t.rebalance(i)
}

func (t *tree[V]) remove(i int32, v V) int32 {
	if i == nilIdx {
		return nilIdx
	}
	c := t.cmp(v, t.nodes[i].value)
	switch {
	case c < 0:
		t.nodes[i].left = t.remove(t.nodes[i].left, v)
	case c > 0:
		t.nodes[i].right = t.remove(t.nodes[i].right, v)
	default:
		l, r := t.nodes[i].left, t.nodes[i].right
		t.release(i)
		if l == nilIdx {
			return r
		}
		if r == nilIdx {
			return l
		}
		r, m := t.detachMin(r)
		t.nodes[m].left = l
		t.nodes[m].right = r
		return t.rebalance(m)
	}
	return t.rebalance(i)
}

// detachMin unlinks the leftmost node under i. It returns the new subtree
// root and the detached slot.
func (t *tree[V]) detachMin(i int32) (int32, int32) {
	if t.nodes[i].left == nilIdx {
		return t.nodes[i].right, i
	}
	l, m := t.detachMin(t.nodes[i].left)
	t.nodes[i].left = l
	return t.rebalance(i), m
}

func (t *tree[V]) height(i int32) int8 {
	if i == nilIdx {
		return 0
	}
	return t.nodes[i].height
}

func (t *tree[V]) update(i int32) {
	hl, hr := t.height(t.nodes[i].left), t.height(t.nodes[i].right)
	if hl < hr {
		hl = hr
	}
	t.nodes[i].height = hl + 1
}

func (t *tree[V]) rotateLeft(i int32) int32 {
	r := t.nodes[i].right
	t.nodes[i].right = t.nodes[r].left
	t.nodes[r].left = i
	t.update(i)
	t.update(r)
	return r
}

func (t *tree[V]) rotateRight(i int32) int32 {
	l := t.nodes[i].left
	t.nodes[i].left = t.nodes[l].right
	t.nodes[l].right = i
	t.update(i)
	t.update(l)
	return l
}

func (t *tree[V]) rebalance(i int32) int32 {
	t.update(i)
	switch bf := t.height(t.nodes[i].left) - t.height(t.nodes[i].right); {
	case bf > 1:
		l := t.nodes[i].left
		if t.height(t.nodes[l].left) < t.height(t.nodes[l].right) {
			t.nodes[i].left = t.rotateLeft(l)
		}
		return t.rotateRight(i)
	case bf < -1:
		r := t.nodes[i].right
		if t.height(t.nodes[r].right) < t.height(t.nodes[r].left) {
			t.nodes[i].right = t.rotateRight(r)
		}
		return t.rotateLeft(i)
	}
	return i
}
