// Package uacp implements the micro agent communication protocol (uACP),
// a compact big-endian binary codec for inter-agent messages.
//
// Wire format of a single frame:
//
//	[1B verb][4B message_id][8B timestamp_millis]
//	[2B sender_len][sender_bytes][4B payload_len][payload_bytes]
//
// Total header overhead is 19 bytes plus sender and payload lengths. Batches
// are concatenated frames with no separator; the length prefixes re-split them.
package uacp

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Verb identifies the intent of a message.
type Verb byte

const (
	VerbPing    Verb = 0x01
	VerbTell    Verb = 0x02
	VerbAsk     Verb = 0x03
	VerbObserve Verb = 0x04
)

// minHeaderSize is 1 (verb) + 4 (message_id) + 8 (timestamp) + 2 (sender_len) + 4 (payload_len).
const minHeaderSize = 19

// String returns the lowercase verb name.
func (v Verb) String() string {
	switch v {
	case VerbPing:
		return "ping"
	case VerbTell:
		return "tell"
	case VerbAsk:
		return "ask"
	case VerbObserve:
		return "observe"
	}
	return fmt.Sprintf("verb(0x%02x)", byte(v))
}

func (v Verb) valid() bool {
	return v >= VerbPing && v <= VerbObserve
}

// Message is a single uACP message.
type Message struct {
	Verb      Verb
	MessageID uint32
	SenderID  string
	Payload   []byte
	Timestamp uint64 // unix milliseconds
}

var msgIDCounter atomic.Uint32

func nextMessageID() uint32 {
	return msgIDCounter.Add(1)
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Ping creates a PING message with no payload.
func Ping(sender string) Message {
	return Message{Verb: VerbPing, MessageID: nextMessageID(), SenderID: sender, Timestamp: nowMillis()}
}

// Tell creates a TELL message.
func Tell(sender string, payload []byte) Message {
	return Message{Verb: VerbTell, MessageID: nextMessageID(), SenderID: sender, Payload: payload, Timestamp: nowMillis()}
}

// Ask creates an ASK message.
func Ask(sender string, payload []byte) Message {
	return Message{Verb: VerbAsk, MessageID: nextMessageID(), SenderID: sender, Payload: payload, Timestamp: nowMillis()}
}

// Observe creates an OBSERVE message.
func Observe(sender string, payload []byte) Message {
	return Message{Verb: VerbObserve, MessageID: nextMessageID(), SenderID: sender, Payload: payload, Timestamp: nowMillis()}
}

// Encode serializes a single message to the binary wire format.
func Encode(msg Message) []byte {
	sender := []byte(msg.SenderID)
	buf := make([]byte, 0, minHeaderSize+len(sender)+len(msg.Payload))
	buf = append(buf, byte(msg.Verb))
	buf = binary.BigEndian.AppendUint32(buf, msg.MessageID)
	buf = binary.BigEndian.AppendUint64(buf, msg.Timestamp)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(sender)))
	buf = append(buf, sender...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(msg.Payload)))
	buf = append(buf, msg.Payload...)
	return buf
}

// Decode deserializes a single message from the binary wire format.
// Trailing bytes after the frame are an error; use DecodeBatch for
// concatenated frames.
func Decode(data []byte) (Message, error) {
	msg, n, err := decodeFrame(data)
	if err != nil {
		return Message{}, err
	}
	if n != len(data) {
		return Message{}, fmt.Errorf("uACP frame has %d trailing bytes", len(data)-n)
	}
	return msg, nil
}

// decodeFrame decodes one frame from the front of data and returns the number
// of bytes consumed.
func decodeFrame(data []byte) (Message, int, error) {
	if len(data) < minHeaderSize {
		return Message{}, 0, fmt.Errorf("uACP frame too short: %d bytes (minimum %d)", len(data), minHeaderSize)
	}

	verb := Verb(data[0])
	if !verb.valid() {
		return Message{}, 0, fmt.Errorf("invalid uACP verb byte: 0x%02x", data[0])
	}

	messageID := binary.BigEndian.Uint32(data[1:5])
	timestamp := binary.BigEndian.Uint64(data[5:13])
	senderLen := int(binary.BigEndian.Uint16(data[13:15]))

	pos := 15
	if pos+senderLen > len(data) {
		return Message{}, 0, fmt.Errorf("uACP sender_len (%d) exceeds remaining data (%d)", senderLen, len(data)-pos)
	}
	senderRaw := data[pos : pos+senderLen]
	if !utf8.Valid(senderRaw) {
		return Message{}, 0, fmt.Errorf("uACP sender_id is not valid UTF-8")
	}
	pos += senderLen

	if pos+4 > len(data) {
		return Message{}, 0, fmt.Errorf("uACP frame truncated: missing payload_len")
	}
	payloadLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if pos+payloadLen > len(data) {
		return Message{}, 0, fmt.Errorf("uACP payload_len (%d) exceeds remaining data (%d)", payloadLen, len(data)-pos)
	}
	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		copy(payload, data[pos:pos+payloadLen])
	}
	pos += payloadLen

	return Message{
		Verb:      verb,
		MessageID: messageID,
		SenderID:  string(senderRaw),
		Payload:   payload,
		Timestamp: timestamp,
	}, pos, nil
}

// EncodeBatch encodes multiple messages into a single buffer of
// concatenated frames.
func EncodeBatch(msgs []Message) []byte {
	var buf []byte
	for _, m := range msgs {
		buf = append(buf, Encode(m)...)
	}
	return buf
}

// DecodeBatch decodes all frames from a concatenated buffer.
func DecodeBatch(data []byte) ([]Message, error) {
	var msgs []Message
	pos := 0
	for pos < len(data) {
		msg, n, err := decodeFrame(data[pos:])
		if err != nil {
			return nil, fmt.Errorf("uACP batch at offset %d: %w", pos, err)
		}
		msgs = append(msgs, msg)
		pos += n
	}
	return msgs, nil
}
