// Package envelopes has the framing shared by all the nostr message types:
// writing the label and elements, finding the label of an incoming message,
// and splitting it into its elements.
package envelopes

import (
	"bytes"
	"encoding/json"
	"io"

	"nostrly.lol/chk"
	"nostrly.lol/errorf"
)

// Marshaler appends the elements that follow the label.
type Marshaler func(dst []byte) (b []byte)

// Marshal writes the envelope array with the given label.
func Marshal(dst []byte, label string, m Marshaler) (b []byte) {
	b = dst
	b = append(b, '[', '"')
	b = append(b, label...)
	b = append(b, '"', ',')
	b = m(b)
	b = append(b, ']')
	return
}

// Identify returns the label of a message, the first step in decoding it.
// The same labels are used for different messages depending on which side
// sent it, so the rest of the context comes from being the receiver.
func Identify(b []byte) (label string, err error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var tok json.Token
	if tok, err = dec.Token(); err != nil {
		err = errorf.D("message is not JSON: %w", err)
		return
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		err = errorf.D("message is not a JSON array")
		return
	}
	if tok, err = dec.Token(); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return
	}
	var ok bool
	if label, ok = tok.(string); !ok {
		err = errorf.D("message label is not a string: %v", tok)
	}
	return
}

// Elements decodes a message with the expected label and returns the
// elements after the label, of which there must be at least min.
func Elements(b []byte, label string, min int) (el []json.RawMessage, err error) {
	var all []json.RawMessage
	if err = json.Unmarshal(b, &all); chk.D(err) {
		return
	}
	if len(all) < 1 {
		err = errorf.D("empty message")
		return
	}
	var l string
	if err = json.Unmarshal(all[0], &l); chk.D(err) {
		return
	}
	if l != label {
		err = errorf.D("expected %s message, got %s", label, l)
		return
	}
	if el = all[1:]; len(el) < min {
		err = errorf.D("%s message needs %d elements, got %d", label, min, len(el))
		el = nil
	}
	return
}

// String decodes a JSON string element.
func String(raw json.RawMessage) (s []byte, err error) {
	var ss string
	if err = json.Unmarshal(raw, &ss); chk.D(err) {
		return
	}
	return []byte(ss), nil
}

// Write is the shared implementation of codec.Envelope.Write.
func Write(w io.Writer, m Marshaler) (err error) {
	_, err = w.Write(m(nil))
	return
}
