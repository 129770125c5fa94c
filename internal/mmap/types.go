package mmap

import "errors"

// AccessPattern is a hint for how a mapping will be read.
type AccessPattern int

const (
	// AccessDefault gives no advice.
	AccessDefault AccessPattern = iota
	// AccessRandom suits sequence and header files, which are read one
	// record at a time in OID order chosen by the caller.
	AccessRandom
	// AccessWillNeed suits small files read whole at open, such as index
	// offset tables.
	AccessWillNeed
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the file is too large to map.
	ErrInvalidSize = errors.New("mmap: invalid file size")
)
