// Package mdns implements the minimal Multicast DNS codec used for cast
// device discovery: a single PTR query for _googlecast._tcp.local and a
// decoder for the multi-record responses devices advertise, including DNS
// name compression.
package mdns

import (
	"errors"
	"fmt"
	"strings"

	"go2tv.app/castportal/internal/wirebuf"
)

const (
	// MessageLimit caps inbound datagram size, per the RFC 6762 guidance on
	// multicast DNS message limits.
	MessageLimit = 9000

	transactionID = 0xFEED
	responseFlags = 0x8400

	typeA    = 1
	typePTR  = 12
	typeTXT  = 16
	typeAAAA = 28
	typeSRV  = 33

	maxNameLength = 255
)

var serviceLabels = []string{"_googlecast", "_tcp", "local"}

// ErrBadResponse reports a datagram that is not a well-formed answer to the
// cast discovery query. The entire datagram is discarded.
var ErrBadResponse = errors.New("mdns: bad response")

// Record holds the device metadata extracted from one decoded response.
type Record struct {
	ID    string
	Name  string
	Model string
	Port  uint16
	Addr4 string
	Addr6 string
}

// EncodeQuery assembles the discovery query: RFC 1035 header with a fixed
// transaction id, one PTR question for the cast service, QU/IN class.
func EncodeQuery() ([]byte, error) {
	buf := wirebuf.New(64)
	if err := buf.Pack("nnnnnn", transactionID, 0x00, 0x01, 0x00, 0x00, 0x00); err != nil {
		return nil, err
	}
	err := buf.Pack("Ca*Ca*Ca*Cnn",
		len(serviceLabels[0]), serviceLabels[0],
		len(serviceLabels[1]), serviceLabels[1],
		len(serviceLabels[2]), serviceLabels[2],
		0x00, typePTR, 0x8001)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeResponse validates and decodes one response datagram into a device
// record. Any structural violation discards the whole datagram.
func DecodeResponse(pkt []byte) (*Record, error) {
	if len(pkt) > MessageLimit {
		return nil, fmt.Errorf("%w: %d byte datagram exceeds limit", ErrBadResponse, len(pkt))
	}

	buf := wirebuf.New(len(pkt))
	if err := buf.Append(pkt); err != nil {
		return nil, err
	}

	var txid, flags, queries, answers, authority, additional uint16
	if err := buf.Unpack("nnnnnn", &txid, &flags, &queries, &answers, &authority, &additional); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrBadResponse)
	}
	if txid != transactionID || flags != responseFlags || queries != 0 || answers != 1 {
		return nil, fmt.Errorf("%w: header mismatch txid=%#x flags=%#x qd=%d an=%d",
			ErrBadResponse, txid, flags, queries, answers)
	}

	// The single answer must be the PTR record for the cast service itself.
	owner, err := parseName(buf, -1)
	if err != nil {
		return nil, err
	}
	var rType, rClass, rLen uint16
	var rTTL uint32
	if err := buf.Unpack("nnNn", &rType, &rClass, &rTTL, &rLen); err != nil {
		return nil, fmt.Errorf("%w: truncated answer record", ErrBadResponse)
	}
	if rType != typePTR || rClass&0x7FFF != 0x01 {
		return nil, fmt.Errorf("%w: answer type=%d class=%#x", ErrBadResponse, rType, rClass)
	}
	if len(owner) != len(serviceLabels) {
		return nil, fmt.Errorf("%w: unexpected answer name %q", ErrBadResponse, strings.Join(owner, "."))
	}
	for i, label := range serviceLabels {
		if owner[i] != label {
			return nil, fmt.Errorf("%w: unexpected answer name %q", ErrBadResponse, strings.Join(owner, "."))
		}
	}

	record := &Record{}

	// The PTR target is the device's fully qualified instance name; its first
	// label doubles as the default display name.
	if buf.Len()-buf.Offset() < int(rLen) {
		return nil, fmt.Errorf("%w: answer rdata overruns message", ErrBadResponse)
	}
	target, err := parseName(buf, int(rLen))
	if err != nil {
		return nil, err
	}
	if len(target) > 0 {
		record.Name = target[0]
	}
	buf.SetOffset(buf.Offset() + int(rLen))

	for i := 0; i < int(authority); i++ {
		if err := skipName(buf); err != nil {
			return nil, err
		}
		if err := buf.Unpack("nnNn", &rType, &rClass, &rTTL, &rLen); err != nil {
			return nil, fmt.Errorf("%w: truncated authority record", ErrBadResponse)
		}
		if buf.Len()-buf.Offset() < int(rLen) {
			return nil, fmt.Errorf("%w: authority rdata overruns message", ErrBadResponse)
		}
		buf.SetOffset(buf.Offset() + int(rLen))
	}

	for i := 0; i < int(additional); i++ {
		if err := skipName(buf); err != nil {
			return nil, err
		}
		if err := buf.Unpack("nnNn", &rType, &rClass, &rTTL, &rLen); err != nil {
			return nil, fmt.Errorf("%w: truncated additional record", ErrBadResponse)
		}
		if buf.Len()-buf.Offset() < int(rLen) {
			return nil, fmt.Errorf("%w: additional rdata overruns message", ErrBadResponse)
		}

		rdata := buf.Remaining()[:rLen]
		switch rType {
		case typeA:
			if rLen == 4 {
				record.Addr4 = formatIPv4(rdata)
			}
		case typeAAAA:
			if rLen == 16 {
				record.Addr6 = formatIPv6(rdata)
			}
		case typeTXT:
			decodeTXT(rdata, record)
		case typeSRV:
			if rLen >= 6 {
				record.Port = uint16(rdata[4])<<8 | uint16(rdata[5])
			}
		}
		buf.SetOffset(buf.Offset() + int(rLen))
	}

	return record, nil
}

// decodeTXT walks the <length><bytes> character strings in a TXT rdata
// region, capturing the id=, fn= and md= attributes. A segment whose declared
// length runs past the rdata aborts this record only.
func decodeTXT(rdata []byte, record *Record) {
	for pos := 0; pos < len(rdata); {
		slen := int(rdata[pos])
		if slen >= len(rdata)-pos {
			break
		}
		segment := string(rdata[pos+1 : pos+1+slen])
		switch {
		case strings.HasPrefix(segment, "id="):
			record.ID = segment[3:]
		case strings.HasPrefix(segment, "fn="):
			record.Name = segment[3:]
		case strings.HasPrefix(segment, "md="):
			record.Model = segment[3:]
		}
		pos += slen + 1
	}
}

// parseName decodes a possibly-compressed DNS name starting at the buffer
// cursor. With maxLen < 0 the cursor is advanced past the name; with a
// non-negative maxLen the name must begin within that many bytes and the
// cursor is left untouched (the caller skips the enclosing rdata). Decoding
// is iterative with a bounded pointer-follow count so adversarial pointer
// chains always terminate.
func parseName(buf *wirebuf.Buffer, maxLen int) ([]string, error) {
	msg := buf.Bytes()
	pos := buf.Offset()
	limit := len(msg)
	if maxLen >= 0 {
		limit = pos + maxLen
		if limit > len(msg) {
			limit = len(msg)
		}
	}

	var labels []string
	nameLen := 0
	outer := pos
	redirected := false
	hops := 0
	terminated := false

	for pos < limit {
		slen := int(msg[pos])
		pos++
		if !redirected {
			outer++
		}

		if slen&0xC0 == 0xC0 {
			if pos >= limit {
				return nil, fmt.Errorf("%w: truncated compression pointer", ErrBadResponse)
			}
			target := (slen&0x3F)<<8 | int(msg[pos])
			if !redirected {
				outer++
			}
			if target >= len(msg) {
				return nil, fmt.Errorf("%w: compression pointer out of bounds", ErrBadResponse)
			}
			hops++
			if hops > len(msg) {
				return nil, fmt.Errorf("%w: compression pointer loop", ErrBadResponse)
			}
			pos = target
			limit = len(msg)
			redirected = true
			continue
		}

		if slen == 0 {
			terminated = true
			break
		}
		if slen > 63 {
			return nil, fmt.Errorf("%w: label length %d", ErrBadResponse, slen)
		}
		if pos+slen > limit {
			return nil, fmt.Errorf("%w: label overruns message", ErrBadResponse)
		}
		nameLen += slen + 1
		if nameLen > maxNameLength {
			return nil, fmt.Errorf("%w: name exceeds %d bytes", ErrBadResponse, maxNameLength)
		}
		labels = append(labels, string(msg[pos:pos+slen]))
		pos += slen
		if !redirected {
			outer += slen
		}
	}

	if !terminated {
		return nil, fmt.Errorf("%w: unterminated name", ErrBadResponse)
	}
	if maxLen < 0 {
		buf.SetOffset(outer)
	}
	return labels, nil
}

// skipName advances the cursor past an owner name without assembling it. A
// compression pointer ends the name immediately.
func skipName(buf *wirebuf.Buffer) error {
	msg := buf.Bytes()
	pos := buf.Offset()

	for pos < len(msg) {
		slen := int(msg[pos])
		pos++
		if slen&0xC0 == 0xC0 {
			pos++
			if pos > len(msg) {
				return fmt.Errorf("%w: truncated compression pointer", ErrBadResponse)
			}
			buf.SetOffset(pos)
			return nil
		}
		if slen == 0 {
			buf.SetOffset(pos)
			return nil
		}
		pos += slen
	}

	return fmt.Errorf("%w: unterminated name", ErrBadResponse)
}
