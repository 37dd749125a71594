package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 row identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake derives the node number from a hash of the hostname so
// replicas on different hosts land on different nodes without any
// coordination. Two replicas on one host would collide; deployments
// run one process per host.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	sum := sha256.Sum256([]byte(host))
	node, err := snowflake.NewNode(int64(binary.BigEndian.Uint16(sum[:2]) % 1024))
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
