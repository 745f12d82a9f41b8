package domain

import (
	"encoding/json"
	"fmt"
)

// Status is an immutable snapshot of a device's full state at the
// moment of the call. It serializes to the flat JSON document the
// device microservices speak: identity fields and variant state fields
// side by side in one object.
type Status struct {
	DeviceID   string
	Type       DeviceType
	Connection string

	// State holds the variant-specific fields (is_on, volume, ...).
	State map[string]any
}

func (s Status) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.State)+3)
	for k, v := range s.State {
		m[k] = v
	}
	m["device_id"] = s.DeviceID
	m["type"] = string(s.Type)
	m["connection"] = s.Connection
	return json.Marshal(m)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	id, ok := m["device_id"].(string)
	if !ok {
		return fmt.Errorf("status missing device_id")
	}
	typ, ok := m["type"].(string)
	if !ok {
		return fmt.Errorf("status missing type")
	}
	conn, _ := m["connection"].(string)

	delete(m, "device_id")
	delete(m, "type")
	delete(m, "connection")

	s.DeviceID = id
	s.Type = DeviceType(typ)
	s.Connection = conn
	s.State = m
	return nil
}

// Clone returns a copy with its own State map, so callers can hold a
// snapshot without aliasing device-internal storage.
func (s Status) Clone() Status {
	cpy := s
	cpy.State = make(map[string]any, len(s.State))
	for k, v := range s.State {
		cpy.State[k] = v
	}
	return cpy
}

// Bool reads a boolean state field; absent or mistyped fields read as
// false.
func (s Status) Bool(key string) bool {
	v, _ := s.State[key].(bool)
	return v
}

// Int reads a numeric state field. JSON decoding turns numbers into
// float64, so both representations are accepted.
func (s Status) Int(key string) int {
	switch v := s.State[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// Str reads a string state field; absent fields read as "".
func (s Status) Str(key string) string {
	v, _ := s.State[key].(string)
	return v
}
