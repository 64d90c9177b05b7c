// Package cluster reads worker metadata from an external execution cluster.
// Its main use is totalling the workers' memory limits, which is where sizing
// targets usually come from.
package cluster

import (
	"fmt"

	"github.com/twitter/saturation/common/bytesize"
)

type NodeId string

// Node is one worker as reported by the cluster.
type Node struct {
	// A unique worker identifier, like 'tcp://host:port'
	Id          NodeId
	MemoryLimit bytesize.ByteSize
	NThreads    int
}

func (n Node) String() string {
	return fmt.Sprintf("%s(memory_limit=%s, nthreads=%d)", n.Id, n.MemoryLimit, n.NThreads)
}

// NewIdNodes returns num identical workers named node1..nodeN.
func NewIdNodes(num int, memoryLimit bytesize.ByteSize, nthreads int) []Node {
	r := []Node{}
	for i := 0; i < num; i++ {
		r = append(r, Node{Id: NodeId(fmt.Sprintf("node%d", i+1)), MemoryLimit: memoryLimit, NThreads: nthreads})
	}
	return r
}

type NodeSorter []Node

func (n NodeSorter) Len() int           { return len(n) }
func (n NodeSorter) Swap(i, j int)      { n[i], n[j] = n[j], n[i] }
func (n NodeSorter) Less(i, j int) bool { return n[i].Id < n[j].Id }
