package worker

import "errors"

var (
	// ErrWorkerNotRunning is returned when triggering a pass on a stopped worker
	ErrWorkerNotRunning = errors.New("worker is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid worker configuration")
)
