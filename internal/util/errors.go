package util

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrDuplicateFingerprint = errors.New("paper fingerprint already exists")
	ErrNoExtractableText    = errors.New("no extractable text found in PDF")
	ErrPageOutOfRange       = errors.New("page number out of range")
)
