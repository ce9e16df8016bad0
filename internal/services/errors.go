package services

import "errors"

// Processing service errors
var (
	ErrRunInProgress   = errors.New("another file is being processed")
	ErrMissingFile     = errors.New("no file selected")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrFileNotFound    = errors.New("file not found")
)
