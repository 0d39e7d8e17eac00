package bridge

import "errors"

var (
	// ErrDirectory reports that the communication directory could not be created.
	ErrDirectory = errors.New("communication directory unavailable")
	// ErrWrite reports that the command file could not be written.
	ErrWrite = errors.New("command could not be written")
	// ErrTimeout reports that no parseable response arrived in time. The
	// extension may still act on the command later.
	ErrTimeout = errors.New("REAPER did not respond (timeout)")
	// ErrRemoteFailure marks responses with success=false.
	ErrRemoteFailure = errors.New("REAPER reported a failure")
	// ErrBusy reports that another exchange already owns the mailbox.
	ErrBusy = errors.New("another REAPER operation is in progress")
)

// RemoteError carries the extension's failure message for one command.
type RemoteError struct {
	Command Kind
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Is matches ErrRemoteFailure.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteFailure
}
