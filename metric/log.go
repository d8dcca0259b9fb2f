package metric

import (
	"time"

	"go.uber.org/zap"
)

// common log fields

func ReplicaId(val string) zap.Field {
	return zap.String("replicaId", val)
}

func RecordId(val string) zap.Field {
	return zap.String("recordId", val)
}

func PeerId(val string) zap.Field {
	return zap.String("peerId", val)
}

func TotalDur(val time.Duration) zap.Field {
	return zap.Int64("totalMs", val.Milliseconds())
}
