package dexcell

import (
	"errors"

	"github.com/bft-labs/dexcell/pkg/lifecycle"
)

// Errors returned by the facade. They can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dexcell: invalid configuration")

	// ErrSubmitFailed is returned by Submit when every attempt failed.
	ErrSubmitFailed = errors.New("dexcell: problem inserting data")

	// ErrNoAPIToken is returned when the REST API is used without a token.
	ErrNoAPIToken = errors.New("dexcell: no api token configured")

	// ErrAlreadyRunning is returned when Start() is called on a running Streamer.
	ErrAlreadyRunning = lifecycle.ErrAlreadyRunning

	// ErrNotRunning is returned when Add() or Stop() is called on a stopped Streamer.
	ErrNotRunning = lifecycle.ErrNotRunning

	// ErrShutdownTimeout is returned when the final flush times out.
	ErrShutdownTimeout = lifecycle.ErrShutdownTimeout
)
