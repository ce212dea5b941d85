package model

import "errors"

var (
	// ErrDataUnavailable marks an empty or failed provider response for one instrument.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory marks a series too short for an indicator or model.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrModelFit marks a numerical or convergence failure in a forecaster.
	ErrModelFit = errors.New("model fit failure")
	// ErrNoData is returned when no instrument produced usable data in a cycle.
	ErrNoData = errors.New("no usable data for any instrument")
)
