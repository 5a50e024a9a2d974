package protocol

import (
	"errors"
	"fmt"

	"go2tv.app/castportal/internal/wirebuf"
)

var (
	// ErrIncomplete reports that the rolling buffer does not yet hold one
	// whole frame. The buffer cursor is left at zero; callers read more
	// bytes and retry.
	ErrIncomplete = errors.New("protocol: incomplete frame")

	// ErrMalformed reports an unparsable or invalid frame. The offending
	// frame has been consumed from the buffer; following frames are intact.
	ErrMalformed = errors.New("protocol: malformed frame")
)

func fieldTag(index, wire int) int { return index<<3 | wire }

// AppendFrame encodes msg as a CastMessage body behind a 32-bit big-endian
// length prefix, appending the whole frame to buf.
func AppendFrame(buf *wirebuf.Buffer, msg *Message) error {
	urn := msg.Namespace.URN()
	if urn == "" {
		return fmt.Errorf("protocol: cannot encode namespace %d", msg.Namespace)
	}

	body := wirebuf.New(128)
	err := body.Pack("yy yya* yya* yya*",
		fieldTag(1, 0), 0,
		fieldTag(2, 2), len(msg.SourceID), msg.SourceID,
		fieldTag(3, 2), len(msg.DestinationID), msg.DestinationID,
		fieldTag(4, 2), len(urn), urn)
	if err != nil {
		return err
	}
	switch msg.PayloadType {
	case PayloadString:
		err = body.Pack("yy yya*",
			fieldTag(5, 0), 0,
			fieldTag(6, 2), len(msg.PayloadUTF8), msg.PayloadUTF8)
	case PayloadBinary:
		err = body.Pack("yy yyb%",
			fieldTag(5, 0), 1,
			fieldTag(7, 2), len(msg.Binary), len(msg.Binary), msg.Binary)
	default:
		err = fmt.Errorf("protocol: cannot encode payload type %d", msg.PayloadType)
	}
	if err != nil {
		return err
	}

	if err := buf.Pack("N", body.Len()); err != nil {
		return err
	}
	return buf.Append(body.Bytes())
}

// DecodeFrame extracts the first complete frame from the rolling buffer. On
// ErrIncomplete nothing is consumed; on success or ErrMalformed the frame's
// bytes are removed so decoding can resume at the next frame boundary.
func DecodeFrame(buf *wirebuf.Buffer) (*Message, error) {
	if buf.Len() < 4 {
		return nil, ErrIncomplete
	}
	buf.SetOffset(0)
	var bodyLen uint32
	if err := buf.Unpack("N", &bodyLen); err != nil {
		return nil, ErrIncomplete
	}
	limit := int(bodyLen) + 4
	if buf.Len() < limit {
		buf.SetOffset(0)
		return nil, ErrIncomplete
	}

	msg, err := parseBody(buf, limit)
	buf.Consume(limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	return msg, nil
}

// parseBody walks the protobuf fields between the cursor and limit. The
// caller consumes the frame regardless of outcome.
func parseBody(buf *wirebuf.Buffer, limit int) (*Message, error) {
	var (
		protoVersion int64 = -1
		payloadType  int64 = -1
		payloadField int
		payload      []byte
		source, dest string
		sourceSeen   bool
		destSeen     bool
	)
	namespace := UnknownNamespace

	for buf.Offset() < limit {
		var tag uint32
		if err := buf.Unpack("y", &tag); err != nil || buf.Offset() > limit {
			return nil, errors.New("truncated field tag")
		}
		index := int(tag >> 3)
		wire := int(tag & 0x07)

		var varVal uint32
		fragLen := 0
		switch wire {
		case 0:
			if err := buf.Unpack("y", &varVal); err != nil || buf.Offset() > limit {
				return nil, errors.New("truncated varint field")
			}
		case 1:
			fragLen = 8
		case 2:
			var declared uint32
			if err := buf.Unpack("y", &declared); err != nil || buf.Offset() > limit {
				return nil, errors.New("truncated length delimiter")
			}
			fragLen = int(declared)
		case 5:
			fragLen = 4
		default:
			// Deprecated group markers (3, 4) and reserved types.
			return nil, fmt.Errorf("unsupported wire type %d", wire)
		}
		if buf.Offset()+fragLen > limit {
			return nil, fmt.Errorf("field %d overruns frame", index)
		}
		frag := buf.Bytes()[buf.Offset() : buf.Offset()+fragLen]

		switch index {
		case 1:
			if wire != 0 {
				return nil, errors.New("protocol version must be varint")
			}
			protoVersion = int64(varVal)
		case 2:
			if wire != 2 {
				return nil, errors.New("source id must be length delimited")
			}
			source = string(frag)
			sourceSeen = true
		case 3:
			if wire != 2 {
				return nil, errors.New("destination id must be length delimited")
			}
			dest = string(frag)
			destSeen = true
		case 4:
			if wire != 2 {
				return nil, errors.New("namespace must be length delimited")
			}
			namespace = NamespaceFromURN(string(frag))
		case 5:
			if wire != 0 {
				return nil, errors.New("payload type must be varint")
			}
			if varVal != 0 && varVal != 1 {
				return nil, fmt.Errorf("payload type %d", varVal)
			}
			payloadType = int64(varVal)
		case 6, 7:
			if wire != 2 {
				return nil, errors.New("payload must be length delimited")
			}
			payload = append([]byte(nil), frag...)
			payloadField = index
		default:
			return nil, fmt.Errorf("unknown field index %d", index)
		}

		buf.SetOffset(buf.Offset() + fragLen)
	}

	if buf.Offset() != limit {
		return nil, errors.New("fields do not fit frame exactly")
	}
	if protoVersion != 0 {
		return nil, fmt.Errorf("protocol version %d", protoVersion)
	}
	if namespace == UnknownNamespace {
		return nil, errors.New("unrecognized namespace")
	}
	if !sourceSeen || !destSeen {
		return nil, errors.New("missing endpoint identifiers")
	}
	if payloadType == -1 || payload == nil {
		return nil, errors.New("missing payload")
	}
	if (payloadType == 0) != (payloadField == 6) {
		return nil, errors.New("payload tag inconsistent with payload type")
	}

	msg := &Message{
		SourceID:      source,
		DestinationID: dest,
		Namespace:     namespace,
		PayloadType:   PayloadType(payloadType),
	}
	if msg.PayloadType == PayloadString {
		msg.PayloadUTF8 = string(payload)
	} else {
		msg.Binary = payload
	}
	return msg, nil
}
