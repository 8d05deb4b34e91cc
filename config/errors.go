// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidActorType   = errors.New("invalid actor type: manufacturer and name are required")
	ErrInvalidTimeout     = errors.New("invalid default call timeout")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidPeerAddress = errors.New("invalid peer address")
	ErrInvalidPeerType    = errors.New("invalid peer actor type")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound = errors.New("configuration file not found")
	ErrUnsupportedFormat  = errors.New("unsupported configuration file format")
)
