package loadgen

import "time"

// Worker configuration constants.
const (
	workerChannelMultiplier = 2
)

// Run defaults.
const (
	defaultSettleTimeout = 30 * time.Second
	defaultPollInterval  = 100 * time.Millisecond
	podiumSize           = 3
	percentageMultiplier = 100
	filePermission       = 0o600
	directoryPermission  = 0o750
)
