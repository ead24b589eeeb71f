package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

const fallbackNode = 1

// Initialize sets the node ID used for request IDs. Processes that share a
// log sink should use distinct node IDs. An invalid ID is reported and node
// 1 is used instead.
func Initialize(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			node, _ = snowflake.NewNode(fallbackNode)
		}
	})
	return err
}

// GenerateID returns a new Snowflake ID as a string. Node 1 is used unless
// Initialize ran first.
func GenerateID() string {
	_ = Initialize(fallbackNode)
	return node.Generate().String()
}
