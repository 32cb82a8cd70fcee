package recorder

import "errors"

var (
	// ErrAlreadyRecording is returned by Start while a recording is running.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Stop when nothing is running.
	ErrNotRecording = errors.New("not recording")
	// ErrNoSourceAvailable means none of the sources the mode asks for has a
	// usable device.
	ErrNoSourceAvailable = errors.New("no audio source available")
	// ErrInvalidMode is returned for an unknown capture mode.
	ErrInvalidMode = errors.New("invalid capture mode")
	// ErrEmptyRecording reports a stop that produced no samples. It is a
	// "nothing was recorded" outcome for the user, not a failure.
	ErrEmptyRecording = errors.New("nothing was recorded")
)
