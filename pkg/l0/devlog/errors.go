package devlog

import "errors"

var (
	// ErrReentrantAcquire indicates Acquire while the encoder is already held.
	ErrReentrantAcquire = errors.New("encoder acquired reentrantly")
	// ErrReleaseOutOfContext indicates Release without a matching Acquire.
	ErrReleaseOutOfContext = errors.New("encoder released out of context")
)
