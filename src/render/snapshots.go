package render

import (
	"context"

	"baobab/src/broker"
	"baobab/src/contracts"
	"baobab/src/logger"
	"baobab/src/teamcity"
)

// Snapshots decodes snapshot messages from a broker subscription into builds.
// Messages that fail to decode are logged and skipped. The returned channel
// closes when msgs closes or ctx is done.
func Snapshots(ctx context.Context, msgs <-chan broker.Message, log logger.Logger) <-chan teamcity.Build {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	out := make(chan teamcity.Build)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				snap, err := contracts.DecodeSnapshot(msg.Value)
				if err != nil {
					log.Error("dropping undecodable snapshot at offset %d: %v", msg.Offset, err)
					continue
				}

				select {
				case out <- snap.Build:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
