package controllers

import "errors"

var (
	// ErrListNotFound means the list id does not exist for the caller
	ErrListNotFound = errors.New("list not found")

	// ErrProviderNotConfigured means no credentials exist for the list's provider
	ErrProviderNotConfigured = errors.New("provider is not configured")

	// ErrDownstreamNotConfigured means the request service is not configured
	ErrDownstreamNotConfigured = errors.New("request service is not configured")

	// ErrRunInProgress means a run for the same target is already in flight
	ErrRunInProgress = errors.New("a run for this target is already in progress")
)
