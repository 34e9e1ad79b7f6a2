package ports

import "errors"

// Terminal failure kinds for a capture run. Adapters and stages wrap these
// with fmt.Errorf("...: %w", ...) so the recorder can classify the single
// reported failure with errors.Is.
var (
	// ErrConnectionLost indicates the transport to the debug target was
	// lost or is unreachable.
	ErrConnectionLost = errors.New("connection lost")

	// ErrProtocol indicates a malformed or unexpected protocol message,
	// including command error responses and unmatched response ids.
	ErrProtocol = errors.New("protocol error")

	// ErrDecodeThreshold indicates the dropped-frame fraction exceeded the
	// configured limit. Individual decode failures are recoverable and
	// never surface past the decode stage.
	ErrDecodeThreshold = errors.New("decode failure threshold exceeded")

	// ErrEncoder indicates the video encoder failed.
	ErrEncoder = errors.New("encoder failure")

	// ErrWrite indicates a storage-level failure writing the output.
	ErrWrite = errors.New("write failure")
)
