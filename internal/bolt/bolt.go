package bolt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

type Message struct {
	T    Type
	Data []byte
}

type Type string

const (
	ResetMsg    Type = "RESET"
	RunMsg           = "RUN"
	DiscardMsg       = "DISCARD"
	PullMsg          = "PULL"
	RecordMsg        = "RECORD"
	SuccessMsg       = "SUCCESS"
	IgnoreMsg        = "IGNORE"
	FailureMsg       = "FAILURE"
	HelloMsg         = "HELLO"
	GoodbyeMsg       = "GOODBYE"
	BeginMsg         = "BEGIN"
	CommitMsg        = "COMMIT"
	RollbackMsg      = "ROLLBACK"
	UnknownMsg       = "?UNKNOWN?"
	NopMsg           = "NOP"
)

// Parse a byte into the corresponding Bolt message Type
func TypeFromByte(b byte) Type {
	switch b {
	case 0x0f:
		return ResetMsg
	case 0x10:
		return RunMsg
	case 0x2f:
		return DiscardMsg
	case 0x3f:
		return PullMsg
	case 0x71:
		return RecordMsg
	case 0x70:
		return SuccessMsg
	case 0x7e:
		return IgnoreMsg
	case 0x7f:
		return FailureMsg
	case 0x01:
		return HelloMsg
	case 0x02:
		return GoodbyeMsg
	case 0x11:
		return BeginMsg
	case 0x12:
		return CommitMsg
	case 0x13:
		return RollbackMsg
	default:
		return UnknownMsg
	}
}

// Try to parse a byte array into zero or many Bolt Messages with any remaining
// byte array chunk left over.
func Parse(buf []byte) ([]Message, []byte, error) {
	messages := make([]Message, 0)
	var chunk []byte

	for i := 0; i < len(buf); {
		msglen := int(binary.BigEndian.Uint16(buf[i : i+2]))
		if msglen+i+4 > len(buf) {
			chunk = buf[i:]
			break
		}

		msg := buf[i : i+msglen+4]

		if !bytes.HasSuffix(msg, []byte{0x00, 0x00}) {
			return messages, chunk, errBadMessage
		}

		msgType := IdentifyType(msg)
		i = i + len(msg)

		messages = append(messages, Message{msgType, msg})
	}

	return messages, chunk, nil
}

// LogMessage emits a single Bolt message at debug verbosity.
func LogMessage(log logr.Logger, who string, msg *Message) {
	log.V(1).Info("bolt message", "who", who, "type", msg.T, "data", msg.Data)
}

// LogMessages emits a batch of parsed Bolt messages at debug verbosity.
func LogMessages(log logr.Logger, who string, messages []Message) {
	for i, msg := range messages {
		log.V(1).Info("bolt message", "who", who, "index", i, "type", msg.T, "data", msg.Data)
	}
}

// Try to extract the BoltMsg from some given bytes.
func IdentifyType(buf []byte) Type {

	// If the byte array is too small, it could be an empty message
	if len(buf) < 4 {
		return NopMsg
	}

	// A framed message is the two-byte chunk size, the struct marker byte,
	// then the message signature byte, whatever the size of the message.
	return TypeFromByte(buf[3])
}

// Try parsing some bytes into a Packstream Tiny Map, returning it as a map
// of string keys to their decoded values (tiny-ints, strings, tiny-arrays,
// nested tiny-maps) and the number of bytes the map occupied.
//
// If the input is empty or not a supported tiny map, return an error along
// with a nil or partially filled map.
//
// Note that this only parses a tiny map that starts at the first byte of
// buf; it does not search further into the array for one.
func ParseTinyMap(buf []byte) (map[string]interface{}, int, error) {
	if len(buf) < 1 {
		return nil, 0, errors.New("bytes empty, cannot parse struct")
	}

	result := make(map[string]interface{})

	pos := 0
	if buf[pos]>>4 != 0xa {
		return result, pos, errors.New("bytes missing tiny-map prefix of 0xa")
	}

	numMembers := int(buf[pos] & 0xf)
	pos++

	for i := 0; i < numMembers; i++ {
		// map keys are tiny-strings typically
		name, n, err := ParseTinyString(buf[pos:])
		if err != nil {
			return result, pos, err
		}
		pos = pos + n

		// now for the value
		switch buf[pos] >> 4 {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7: // tiny-int
			val, err := ParseTinyInt(buf[pos])
			if err != nil {
				return result, pos, err
			}
			result[name] = val
			pos++
		case 0x8: // tiny-string
			val, n, err := ParseTinyString(buf[pos:])
			if err != nil {
				return result, pos, err
			}
			result[name] = val
			pos = pos + n
		case 0x9: // tiny-array
			val, n, err := ParseTinyArray(buf[pos:])
			if err != nil {
				return result, pos, err
			}
			result[name] = val
			pos = pos + n
		case 0xd: // string
			val, n, err := ParseString(buf[pos:])
			if err != nil {
				return result, pos, err
			}
			result[name] = val
			pos = pos + n
		case 0xa: // tiny-map
			value, n, err := ParseTinyMap(buf[pos:])
			if err != nil {
				return nil, pos, err
			}
			result[name] = value
			pos = pos + n
		default:
			return nil, pos, fmt.Errorf("found unsupported encoding type: %#v", buf[pos])
		}
	}

	return result, pos, nil
}

// Parse a TinyInt...which is a simply 7-bit number.
func ParseTinyInt(b byte) (int, error) {
	if b > 0x7f {
		return 0, errors.New("expected tiny-int!")
	}
	return int(b), nil
}

// Parse a TinyString from a byte slice, returning the string (if valid) and
// the number of bytes processed from the slice (including the 0x80 prefix).
//
// Otherwise, return an empty string, 0, and an error.
func ParseTinyString(buf []byte) (string, int, error) {
	//	fmt.Printf("DEBUG: ParseTinyString: %#v\n", buf)
	if len(buf) == 0 || buf[0]>>4 != 0x8 {
		return "", 0, errors.New("expected tiny-string!")
	}

	size := int(buf[0] & 0xf)
	if size == 0 {
		return "", 1, nil
	}

	return fmt.Sprintf("%s", buf[1:size+1]), size + 1, nil
}

func ParseString(buf []byte) (string, int, error) {
	if len(buf) < 1 || buf[0]>>4 != 0xd {
		return "", 0, errors.New("expected string!")
	}
	pos := 0

	// how many bytes is the encoding for the string length?
	readAhead := int(1 << int(buf[pos]&0xf))
	pos++

	// decode the amount of bytes to read to get the string length
	sizeBytes := buf[pos : pos+readAhead]
	sizeBytes = append(make([]byte, 8), sizeBytes...)
	pos = pos + readAhead

	// decode the actual string length
	size := int(binary.BigEndian.Uint64(sizeBytes[len(sizeBytes)-8:]))
	return fmt.Sprintf("%s", buf[pos:pos+size]), pos + size, nil
}

func ParseTinyArray(buf []byte) ([]interface{}, int, error) {
	if buf[0]>>4 != 0x9 {
		return nil, 0, errors.New("expected tiny-array")
	}
	size := int(buf[0] & 0xf)
	array := make([]interface{}, size)
	pos := 1

	for i := 0; i < size; i++ {
		memberType := buf[pos] >> 4
		switch memberType {
		case 0x0, 0x1, 0x2, 0x3, 0x4, 0x5, 0x6, 0x7: // tiny-int
			val, err := ParseTinyInt(buf[pos])
			if err != nil {
				return array, pos, err
			}
			array[i] = val
			pos++
		case 0x8: // tiny-string
			val, n, err := ParseTinyString(buf[pos:])
			if err != nil {
				return array, pos, err
			}
			array[i] = val
			pos = pos + n
		case 0xd: // regular string
			val, n, err := ParseString(buf[pos:])
			if err != nil {
				return array, pos, err
			}
			array[i] = val
			pos = pos + n
		case 0x9: // nested tiny-array
			val, n, err := ParseTinyArray(buf[pos:])
			if err != nil {
				return array, pos, err
			}
			array[i] = val
			pos = pos + n
		case 0xa: // tiny-map
			val, n, err := ParseTinyMap(buf[pos:])
			if err != nil {
				return array, pos, err
			}
			array[i] = val
			pos = pos + n
		default:
			return array, pos, fmt.Errorf("found unsupported encoding type: %#v", memberType)
		}
	}

	return array, pos, nil
}
