// Package sse decodes Server-Sent-Events-style frames from a byte
// stream that arrives in arbitrary chunks. Frames look like
//
//	event: <name>\ndata: <json>\n\n
//
// and a single frame (or a multi-byte character inside one) can
// straddle any number of chunk boundaries.
package sse

import "bytes"

// Event is one complete decoded frame. Data is the raw payload bytes;
// callers unmarshal it into the shape the event name implies.
type Event struct {
	Name string
	Data []byte
}

var frameSep = []byte("\n\n")

// Decoder is an incremental frame parser. It retains only the
// unconsumed suffix of the stream between calls, never the whole
// stream. The zero value is ready to use.
type Decoder struct {
	buf []byte
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends one chunk and returns every frame completed by it, in
// stream order. The trailing incomplete fragment is held back until a
// later chunk closes it; it is never parsed prematurely. Fragments
// missing an event or data line are dropped silently.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		idx := bytes.Index(d.buf, frameSep)
		if idx < 0 {
			break
		}
		frame := d.buf[:idx]
		d.buf = d.buf[idx+len(frameSep):]

		if ev, ok := parseFrame(frame); ok {
			events = append(events, ev)
		}
	}

	// Release the backing array once everything buffered was consumed
	// so a long run does not pin the largest chunk seen.
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return events
}

// Pending reports how many buffered bytes await a frame terminator.
func (d *Decoder) Pending() int {
	return len(d.buf)
}

func parseFrame(frame []byte) (Event, bool) {
	var ev Event
	for _, line := range bytes.Split(frame, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		switch {
		case bytes.HasPrefix(line, []byte("event: ")):
			ev.Name = string(line[len("event: "):])
		case bytes.HasPrefix(line, []byte("data: ")):
			ev.Data = line[len("data: "):]
		}
	}
	if ev.Name == "" || ev.Data == nil {
		return Event{}, false
	}
	return ev, true
}
