package genome

import "errors"

var (
	// ErrIndex is returned by At when the index is outside [0, Len).
	ErrIndex = errors.New("gene index out of range")
	// ErrRandIndex is returned when a random index cannot be drawn.
	ErrRandIndex = errors.New("cannot draw random gene index")
	// ErrRecombine is returned for an invalid crossover point.
	ErrRecombine = errors.New("recombine failed")
	// ErrSplice is returned for invalid splice bounds or mismatched parents.
	ErrSplice = errors.New("splice failed")
	// ErrMutate is returned when the mutation index is out of range.
	ErrMutate = errors.New("mutate failed")
	// ErrDecode is returned when an encoded genome cannot be parsed.
	ErrDecode = errors.New("decode failed")
)
