package protocol

import "fmt"

// Reason distinguishes the handful of ways a decode can fail, so the
// connection layer can log a structured cause instead of an opaque string.
type Reason int

const (
	ReasonBadVarInt Reason = iota
	ReasonNeedMoreData
	ReasonUnknownPacket
	ReasonStringTooLong
	ReasonMalformed
)

func (r Reason) String() string {
	switch r {
	case ReasonBadVarInt:
		return "BadVarInt"
	case ReasonNeedMoreData:
		return "NeedMoreData"
	case ReasonUnknownPacket:
		return "UnknownPacket"
	case ReasonStringTooLong:
		return "StringTooLong"
	default:
		return "Malformed"
	}
}

// CodecError is returned by every decode path in this package. It is always
// fatal for the connection that produced it (§7 of SPEC_FULL.md).
type CodecError struct {
	Reason Reason
	Detail string
}

func (e *CodecError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("codec: %s", e.Reason)
	}
	return fmt.Sprintf("codec: %s: %s", e.Reason, e.Detail)
}

func newCodecError(reason Reason, detail string) *CodecError {
	return &CodecError{Reason: reason, Detail: detail}
}
