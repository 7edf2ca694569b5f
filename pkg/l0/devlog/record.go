package devlog

import (
	"errors"
	"time"
	"unicode/utf8"
)

// Record field numbers, encoded in protobuf wire format.
const (
	fieldUptime    = 1
	fieldMessage   = 2
	fieldTruncated = 3

	wireVarint = 0
	wireBytes  = 2
)

// ErrBadRecord indicates a frame payload which is not a valid Record.
var ErrBadRecord = errors.New("bad log record")

// Record is the payload of a log frame.
type Record struct {
	Uptime    time.Duration
	Message   string
	Truncated bool
}

func fieldKey(field, wire int) uint64 {
	return uint64(field<<3 | wire)
}

// Size returns the encoded size of the record.
func (r *Record) Size() int {
	size := 1 + sizeVarint(uint64(r.Uptime/time.Microsecond)) +
		1 + sizeVarint(uint64(len(r.Message))) + len(r.Message)
	if r.Truncated {
		size += 2
	}
	return size
}

// FitMessage cuts Message so that the encoded record is at most max bytes,
// marking the record truncated when anything was cut. The cut never splits
// a UTF-8 sequence.
func (r *Record) FitMessage(max int) {
	for len(r.Message) > 0 && r.Size() > max {
		over := r.Size() - max
		if !r.Truncated {
			r.Truncated = true
			continue
		}
		if over > len(r.Message) {
			over = len(r.Message)
		}
		cut := len(r.Message) - over
		for cut > 0 && !utf8.RuneStart(r.Message[cut]) {
			cut--
		}
		r.Message = r.Message[:cut]
	}
}

// AppendTo appends the encoded record to b.
func (r *Record) AppendTo(b []byte) []byte {
	b = appendVarint(b, fieldKey(fieldUptime, wireVarint))
	b = appendVarint(b, uint64(r.Uptime/time.Microsecond))
	b = appendVarint(b, fieldKey(fieldMessage, wireBytes))
	b = appendString(b, r.Message)
	if r.Truncated {
		b = appendVarint(b, fieldKey(fieldTruncated, wireVarint))
		b = appendVarint(b, 1)
	}
	return b
}

// DecodeRecord decodes a log frame payload. Unknown varint and bytes fields
// are skipped.
func DecodeRecord(data []byte) (r Record, err error) {
	for len(data) > 0 {
		key, n := decodeVarint(data)
		if n == 0 {
			return r, ErrBadRecord
		}
		data = data[n:]
		switch key & 7 {
		case wireVarint:
			val, n := decodeVarint(data)
			if n == 0 {
				return r, ErrBadRecord
			}
			data = data[n:]
			switch key >> 3 {
			case fieldUptime:
				r.Uptime = time.Duration(val) * time.Microsecond
			case fieldTruncated:
				r.Truncated = val != 0
			}
		case wireBytes:
			size, n := decodeVarint(data)
			if n == 0 || uint64(len(data)-n) < size {
				return r, ErrBadRecord
			}
			val := data[n : n+int(size)]
			data = data[n+int(size):]
			if key>>3 == fieldMessage {
				r.Message = string(val)
			}
		default:
			return r, ErrBadRecord
		}
	}
	return r, nil
}
