package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Shape identifies which of the two accepted constituency response bodies was received.
type Shape int

const (
	// ShapeList is a bare JSON array of names.
	ShapeList Shape = iota
	// ShapeWrapped is an object holding the array under "constituencies".
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeWrapped:
		return "wrapped"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// Wrapper is the object form served by the constituencies endpoint. Only the
// list is interpreted; province is kept raw so any JSON value is accepted.
type Wrapper struct {
	Province       json.RawMessage `json:"province,omitempty"`
	Constituencies []string        `json:"constituencies"`
}

// Payload is a decoded constituency response. Exactly one of List or Wrapper
// is meaningful, selected by Shape.
type Payload struct {
	Shape   Shape
	List    []string
	Wrapper Wrapper
}

// ErrUnexpectedShape is returned when a body is neither a list nor a wrapper.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// DecodePayload decodes a constituency response body into one of the two
// accepted shapes. JSON null decodes to an empty list, and a wrapper without
// (or with a null) "constituencies" field decodes to an empty wrapper.
func DecodePayload(data []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Payload{}, fmt.Errorf("%w: empty body", ErrUnexpectedShape)
	}

	switch trimmed[0] {
	case 'n':
		if string(trimmed) != "null" {
			break
		}
		return Payload{Shape: ShapeList}, nil

	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return Payload{Shape: ShapeList, List: list}, nil

	case '{':
		var w Wrapper
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
		return Payload{Shape: ShapeWrapped, Wrapper: w}, nil
	}

	return Payload{}, fmt.Errorf("%w: body starts with %q", ErrUnexpectedShape, trimmed[0])
}

// Items returns the constituency names regardless of shape, preferring the
// wrapper field when the payload is wrapped.
func (p Payload) Items() []string {
	if p.Shape == ShapeWrapped {
		return p.Wrapper.Constituencies
	}
	return p.List
}
