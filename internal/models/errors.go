package models

import "errors"

var (
	// ErrConfiguration marks invalid settings or missing startup state. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrRemoteCall marks a failed embedding, generation or translation call.
	ErrRemoteCall = errors.New("remote call failed")
)
