// Package fault implements the fatal-fault path of the device.
//
// A fault is a condition the device cannot recover from at runtime, such as
// a broken acquire/release pairing or a message larger than the transport
// MTU. Raise reports the fault and halts the calling context by panicking.
package fault

// Fault is an unrecoverable programming or configuration fault.
type Fault struct {
	Err error
}

// Error implements error.
func (f *Fault) Error() string {
	return "fatal fault: " + f.Err.Error()
}

// Unwrap returns the cause.
func (f *Fault) Unwrap() error {
	return f.Err
}

// Reporter is invoked with a fault right before Raise panics with it.
type Reporter func(*Fault)

// Raise reports err through r, if set, and panics with a *Fault.
func Raise(r Reporter, err error) {
	f := &Fault{Err: err}
	if r != nil {
		r(f)
	}
	panic(f)
}
