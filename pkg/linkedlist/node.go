package linkedlist

import (
	"unsafe"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// node is a single list element. Each node is owned by exactly one link:
// the list's head or its predecessor's next.
type node struct {
	next  *node
	data  uint32
	block *alloc.Block
}

// Sizes requested from the allocator for each structure.
var (
	nodeSize     = unsafe.Sizeof(node{})
	listSize     = unsafe.Sizeof(List{})
	iteratorSize = unsafe.Sizeof(Iterator{})
)

// detach clears the node's links so a released node keeps nothing reachable.
func (n *node) detach() *alloc.Block {
	b := n.block
	n.next = nil
	n.block = nil
	return b
}
