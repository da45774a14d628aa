package payload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

// ToJSON renders the payload in its wire form. Object keys are sorted, so
// equal payloads always render to equal bytes.
func (p *Payload) ToJSON(pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(p, "", "  ")
	}
	return json.Marshal(p)
}

// FromJSON parses a payload previously rendered by ToJSON.
func FromJSON(data []byte) (*Payload, error) {
	p := New()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Payload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.fields)+3)
	for k, v := range p.fields {
		out[k] = v
	}
	if p.events != nil {
		events := make([]map[string]any, len(p.events))
		for i, e := range p.events {
			events[i] = e.wire()
		}
		out[FieldEvents] = events
	}
	if p.userProperties != nil {
		out[FieldUserProperties] = p.userProperties
	}
	if p.userData != nil {
		out[FieldUserData] = p.userData.wire()
	}
	return json.Marshal(out)
}

func (e *Event) wire() map[string]any {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if e.Params != nil {
		params := make(map[string]any, len(e.Params.Fields)+1)
		for k, v := range e.Params.Fields {
			params[k] = v
		}
		if e.Params.Items != nil {
			items := make([]Fields, len(e.Params.Items))
			for i, item := range e.Params.Items {
				if item == nil {
					item = Fields{}
				}
				items[i] = item
			}
			params[FieldItems] = items
		}
		out[FieldParams] = params
	}
	return out
}

func (u *UserData) wire() map[string]any {
	out := make(map[string]any, len(u.Fields)+3)
	for k, v := range u.Fields {
		out[k] = v
	}
	if u.EmailAddresses != nil {
		out[FieldEmailAddress] = u.EmailAddresses
	}
	if u.PhoneNumbers != nil {
		out[FieldPhoneNumber] = u.PhoneNumbers
	}
	if u.Address != nil {
		addr := make([]Fields, len(u.Address))
		for i, a := range u.Address {
			if a == nil {
				a = Fields{}
			}
			addr[i] = a
		}
		out[FieldAddress] = addr
	}
	return out
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	*p = Payload{}
	for key, msg := range raw {
		switch key {
		case FieldEvents:
			var events []json.RawMessage
			if err := json.Unmarshal(msg, &events); err != nil {
				return fmt.Errorf("payload %s: %w", key, err)
			}
			p.events = make([]*Event, len(events))
			for i, em := range events {
				e, err := decodeEvent(em)
				if err != nil {
					return fmt.Errorf("payload %s[%d]: %w", key, i, err)
				}
				p.events[i] = e
			}
		case FieldUserProperties:
			var props map[string]struct {
				Value json.RawMessage `json:"value"`
			}
			if err := json.Unmarshal(msg, &props); err != nil {
				return fmt.Errorf("payload %s: %w", key, err)
			}
			p.userProperties = make(map[string]UserProperty, len(props))
			for name, prop := range props {
				v, err := decodeScalar(prop.Value)
				if err != nil {
					return fmt.Errorf("payload %s.%s: %w", key, name, err)
				}
				p.userProperties[name] = UserProperty{Value: v}
			}
		case FieldUserData:
			u, err := decodeUserData(msg)
			if err != nil {
				return fmt.Errorf("payload %s: %w", key, err)
			}
			p.userData = u
		default:
			if err := decodeInto(&p.fields, key, msg); err != nil {
				return fmt.Errorf("payload %s: %w", key, err)
			}
		}
	}
	return nil
}

func decodeEvent(data []byte) (*Event, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	e := &Event{}
	for key, msg := range raw {
		if key != FieldParams {
			if err := decodeInto(&e.Fields, key, msg); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		var params map[string]json.RawMessage
		if err := json.Unmarshal(msg, &params); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		e.Params = &Params{}
		for pk, pm := range params {
			if pk == FieldItems {
				items, err := decodeRecords(pm)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", key, pk, err)
				}
				e.Params.Items = items
				continue
			}
			if err := decodeInto(&e.Params.Fields, pk, pm); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", key, pk, err)
			}
		}
	}
	return e, nil
}

func decodeUserData(data []byte) (*UserData, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	u := &UserData{}
	for key, msg := range raw {
		var err error
		switch key {
		case FieldEmailAddress:
			err = json.Unmarshal(msg, &u.EmailAddresses)
		case FieldPhoneNumber:
			err = json.Unmarshal(msg, &u.PhoneNumbers)
		case FieldAddress:
			u.Address, err = decodeRecords(msg)
		default:
			err = decodeInto(&u.Fields, key, msg)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	return u, nil
}

func decodeRecords(data []byte) ([]Fields, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Fields, len(raw))
	for i, rec := range raw {
		out[i] = Fields{}
		for k, msg := range rec {
			if err := decodeInto(&out[i], k, msg); err != nil {
				return nil, fmt.Errorf("[%d].%s: %w", i, k, err)
			}
		}
	}
	return out, nil
}

func decodeInto(f *Fields, key string, msg json.RawMessage) error {
	v, err := decodeScalar(msg)
	if err != nil {
		return err
	}
	if v != nil {
		set(f, key, v)
	}
	return nil
}

// decodeScalar decodes a JSON scalar. Integral numbers that fit an int64
// come back as int64, other numbers as float64; null decodes to nil.
func decodeScalar(msg json.RawMessage) (models.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported value %s", string(msg))
	}
}
