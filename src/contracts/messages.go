// Package contracts defines the messages exchanged between the poller and its consumers.
package contracts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"baobab/src/teamcity"
)

// TopicSnapshots carries one SnapshotMessage per poll, in poll order.
// Key: {build_id}
const TopicSnapshots = "build_snapshots"

// SnapshotMessage is the wire form of one build observation.
type SnapshotMessage struct {
	// TeamCity server base URL.
	APIURL string `json:"api_url"`
	// Build being watched.
	BuildID uint64 `json:"build_id"`
	// Monotonic poll counter, starting at 1.
	Sequence uint64 `json:"sequence"`
	// When the snapshot was fetched (RFC 3339).
	ObservedAt string `json:"observed_at"`
	// The observation itself.
	Build teamcity.Build `json:"build"`
}

// NewSnapshotMessage stamps a snapshot with its request and poll sequence.
func NewSnapshotMessage(req teamcity.BuildRequest, seq uint64, build teamcity.Build, at time.Time) SnapshotMessage {
	return SnapshotMessage{
		APIURL:     req.APIURL,
		BuildID:    req.BuildID,
		Sequence:   seq,
		ObservedAt: at.UTC().Format(time.RFC3339),
		Build:      build,
	}
}

// Key is the partitioning key for the message.
func (m SnapshotMessage) Key() string {
	return strconv.FormatUint(m.BuildID, 10)
}

// Encode marshals the message for publishing.
func (m SnapshotMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the inverse of Encode.
func DecodeSnapshot(data []byte) (SnapshotMessage, error) {
	var m SnapshotMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return SnapshotMessage{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return m, nil
}
