package models

import "errors"

var (
	// ErrMissingColumn marks a required column absent from an input table or
	// a column name no row schema knows about.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidParameter marks a caller-supplied argument out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownMetric marks a metric name outside the numeric row schema.
	// Errors wrapping it also match ErrInvalidParameter.
	ErrUnknownMetric = errors.New("unknown metric")
)
