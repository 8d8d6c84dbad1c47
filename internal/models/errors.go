package models

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrReadFailed means the frame source stopped yielding frames
	ErrReadFailed = errors.New("frame read failed")
	// ErrEmptyFrame means the source returned a frame without pixels
	ErrEmptyFrame = errors.New("empty frame")
	// ErrGeometryChanged means the source resolution changed mid-session
	ErrGeometryChanged = errors.New("frame geometry changed mid-session")
)

// ConnectionError reports that the frame source could not be opened or stopped delivering frames.
// It is recoverable: the supervisor tears the session down and reconnects.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("camera connection %s: %v", RedactURL(e.URL), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// WriteError reports that a segment file could not be opened, written or closed.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("segment %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConfigError is fatal: the process exits before entering the main loop.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RedactURL hides the password of a stream URL for logging
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	// A bare token in the userinfo is a credential too.
	if u.User != nil {
		if _, hasPassword := u.User.Password(); !hasPassword && u.User.Username() != "" {
			u.User = url.User("xxxxx")
		}
	}
	return u.Redacted()
}
