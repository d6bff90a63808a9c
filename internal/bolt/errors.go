package bolt

import "errors"

var (
	errTooManyUnderReads = errors.New("bolt: too many short reads while framing a message")
	errIncompleteWrite   = errors.New("bolt: incomplete message write")
	errBadMessage        = errors.New("bolt: message missing 0x00 0x00 chunk terminator")
)
