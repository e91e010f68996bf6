package services

import "errors"

// Service errors
var (
	ErrInvalidBoard      = errors.New("invalid leaderboard")
	ErrSchedulerRunning  = errors.New("refresh scheduler already running")
	ErrNoRefreshSchedule = errors.New("no refresh schedule configured")
)
