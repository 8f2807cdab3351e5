package graph

import (
	"fmt"

	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/value"
)

// encodeNode serializes a node's value payload (labels || properties)
// into dst, reusing its backing array when there is room.
func encodeNode(dst []byte, n *Node) []byte {
	dst = value.EncodeLabels(dst, n.Labels)
	dst = value.EncodeProperties(dst, n.Properties)
	return dst
}

func decodeNode(id ids.ElementId, b []byte) (*Node, error) {
	labels, n, err := value.DecodeLabels(b)
	if err != nil {
		return nil, fmt.Errorf("decoding node %s labels: %w", id, err)
	}
	props, _, err := value.DecodeProperties(b[n:])
	if err != nil {
		return nil, fmt.Errorf("decoding node %s properties: %w", id, err)
	}
	return &Node{ID: id, Labels: labels, Properties: props}, nil
}

// encodeEdge serializes an edge's value payload
// (src || dst || directed || labels || properties) into dst.
func encodeEdge(dst []byte, e *Edge) []byte {
	dst = append(dst, e.Src.Bytes()...)
	dst = append(dst, e.Dst.Bytes()...)
	if e.Directed {
		dst = append(dst, 1)
	} else {
		dst = append(dst, 0)
	}
	dst = value.EncodeLabels(dst, e.Labels)
	dst = value.EncodeProperties(dst, e.Properties)
	return dst
}

func decodeEdge(id ids.ElementId, b []byte) (*Edge, error) {
	const headerLen = ids.Size + ids.Size + 1
	if len(b) < headerLen {
		return nil, fmt.Errorf("decoding edge %s: %w", id, value.ErrCorruption)
	}
	src, err := ids.FromBytes(b[:ids.Size])
	if err != nil {
		return nil, fmt.Errorf("decoding edge %s src: %w: %w", id, err, value.ErrCorruption)
	}
	dst, err := ids.FromBytes(b[ids.Size : 2*ids.Size])
	if err != nil {
		return nil, fmt.Errorf("decoding edge %s dst: %w: %w", id, err, value.ErrCorruption)
	}
	directed := b[2*ids.Size] != 0
	rest := b[headerLen:]

	labels, n, err := value.DecodeLabels(rest)
	if err != nil {
		return nil, fmt.Errorf("decoding edge %s labels: %w", id, err)
	}
	props, _, err := value.DecodeProperties(rest[n:])
	if err != nil {
		return nil, fmt.Errorf("decoding edge %s properties: %w", id, err)
	}
	return &Edge{ID: id, Src: src, Dst: dst, Directed: directed, Labels: labels, Properties: props}, nil
}

// decodeAdjValue reads the dst_node stored as an adj CF value.
func decodeAdjValue(b []byte) (ids.ElementId, error) {
	return ids.FromBytes(b)
}
