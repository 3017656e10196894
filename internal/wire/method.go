package wire

import "encoding/binary"

// Method is one of the seven request methods this engine recognizes.
// TRACE and CONNECT (which the teacher's method table supports) are not
// part of this set.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGET
	MethodPUT
	MethodPOST
	MethodHEAD
	MethodPATCH
	MethodDELETE
	MethodOPTIONS
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPUT:
		return "PUT"
	case MethodPOST:
		return "POST"
	case MethodHEAD:
		return "HEAD"
	case MethodPATCH:
		return "PATCH"
	case MethodDELETE:
		return "DELETE"
	case MethodOPTIONS:
		return "OPTIONS"
	default:
		return "UNKNOWN"
	}
}

// parseMethod implements parse-method (spec §4.1): peek a 4-byte tag at
// pos and dispatch on it, exactly per the byte-offset rules below. It
// returns the advanced position, the method, and a kind (KindTooSmall if
// fewer than the needed bytes are visible, KindInvalidMethod on a bad
// token, KindNone on success).
func parseMethod(buf []byte, pos int) (newPos int, method Method, kind ErrKind) {
	if len(buf)-pos < 4 {
		return pos, MethodUnknown, KindTooSmall
	}
	tag := binary.BigEndian.Uint32(buf[pos : pos+4])

	switch tag {
	case tagGET:
		return pos + 4, MethodGET, KindNone
	case tagPUT:
		return pos + 4, MethodPUT, KindNone
	case tagPOST:
		if len(buf)-pos < 5 {
			return pos, MethodUnknown, KindTooSmall
		}
		if buf[pos+4] != ' ' {
			return pos, MethodUnknown, KindInvalidMethod
		}
		return pos + 5, MethodPOST, KindNone
	case tagHEAD:
		if len(buf)-pos < 5 {
			return pos, MethodUnknown, KindTooSmall
		}
		if buf[pos+4] != ' ' {
			return pos, MethodUnknown, KindInvalidMethod
		}
		return pos + 5, MethodHEAD, KindNone
	case tagPATC:
		if len(buf)-pos < 6 {
			return pos, MethodUnknown, KindTooSmall
		}
		if buf[pos+4] != 'H' || buf[pos+5] != ' ' {
			return pos, MethodUnknown, KindInvalidMethod
		}
		return pos + 6, MethodPATCH, KindNone
	case tagDELE:
		if len(buf)-pos < 7 {
			return pos, MethodUnknown, KindTooSmall
		}
		if buf[pos+3] != 'E' || buf[pos+4] != 'T' || buf[pos+5] != 'E' || buf[pos+6] != ' ' {
			return pos, MethodUnknown, KindInvalidMethod
		}
		return pos + 7, MethodDELETE, KindNone
	case tagOPTI:
		if len(buf)-pos < 8 {
			return pos, MethodUnknown, KindTooSmall
		}
		if buf[pos+4] != 'O' || buf[pos+5] != 'N' || buf[pos+6] != 'S' || buf[pos+7] != ' ' {
			return pos, MethodUnknown, KindInvalidMethod
		}
		return pos + 8, MethodOPTIONS, KindNone
	default:
		return pos, MethodUnknown, KindInvalidMethod
	}
}

var (
	tagGET  = binary.BigEndian.Uint32([]byte("GET "))
	tagPUT  = binary.BigEndian.Uint32([]byte("PUT "))
	tagPOST = binary.BigEndian.Uint32([]byte("POST"))
	tagHEAD = binary.BigEndian.Uint32([]byte("HEAD"))
	tagPATC = binary.BigEndian.Uint32([]byte("PATC"))
	tagDELE = binary.BigEndian.Uint32([]byte("DELE"))
	tagOPTI = binary.BigEndian.Uint32([]byte("OPTI"))
)
