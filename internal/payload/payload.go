// Package payload models a Measurement Protocol request body as a typed tree
// that is filled one path at a time and rendered to JSON at the end.
package payload

import (
	"maps"
	"slices"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/mapping"
	"github.com/google-marketing-solutions/ga-mp-uploader/internal/schema"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/utils"
)

// Wire field names.
const (
	FieldClientID       = "client_id"
	FieldAppInstanceID  = "app_instance_id"
	FieldEvents         = "events"
	FieldParams         = "params"
	FieldItems          = "items"
	FieldUserProperties = "user_properties"
	FieldUserData       = "user_data"
	FieldAddress        = "address"

	FieldEmailAddress = "sha256_email_address"
	FieldPhoneNumber  = "sha256_phone_number"
	FieldFirstName    = "sha256_first_name"
	FieldLastName     = "sha256_last_name"
	FieldStreet       = "sha256_street"
)

// Fields is a flat record of scalar values.
type Fields map[string]models.Value

// Item is one line item of the current event.
type Item = Fields

// Address is the single address record of the user data.
type Address = Fields

// Params holds the current event's scalar parameters and its items.
type Params struct {
	Fields Fields
	Items  []Item
}

// Event is one Measurement Protocol event. Only the first event of a payload
// is ever written.
type Event struct {
	Fields Fields
	Params *Params
}

// UserProperty wraps a user property value as the wire format expects.
type UserProperty struct {
	Value models.Value `json:"value"`
}

// UserData holds hashed contact details. The hash lists behave as ordered
// sets and Address has at most one element.
type UserData struct {
	EmailAddresses []string
	PhoneNumbers   []string
	Address        []Address
	Fields         Fields
}

// Payload is one Measurement Protocol request body. A zero Payload is empty
// and ready to use.
type Payload struct {
	fields         Fields
	events         []*Event
	userProperties map[string]UserProperty
	userData       *UserData
}

// New returns an empty payload.
func New() *Payload {
	return &Payload{}
}

func (p *Payload) event() *Event {
	if len(p.events) == 0 {
		p.events = []*Event{{}}
	}
	return p.events[0]
}

func (p *Payload) params() *Params {
	e := p.event()
	if e.Params == nil {
		e.Params = &Params{}
	}
	return e.Params
}

func (p *Payload) currentItem() Item {
	if len(p.events) == 0 || p.events[0].Params == nil {
		return nil
	}
	items := p.events[0].Params.Items
	if len(items) == 0 {
		return nil
	}
	if items[len(items)-1] == nil {
		items[len(items)-1] = Item{}
	}
	return items[len(items)-1]
}

func (p *Payload) user() *UserData {
	if p.userData == nil {
		p.userData = &UserData{}
	}
	return p.userData
}

func (p *Payload) address() Address {
	u := p.user()
	if u.Address == nil {
		u.Address = []Address{{}}
	}
	if len(u.Address) == 0 {
		return nil
	}
	if u.Address[0] == nil {
		u.Address[0] = Address{}
	}
	return u.Address[0]
}

func set(f *Fields, name string, v models.Value) {
	if *f == nil {
		*f = Fields{}
	}
	(*f)[name] = v
}

// AddItem appends an empty item to the current event. Later item writes go
// to it.
func (p *Payload) AddItem() {
	params := p.params()
	params.Items = append(params.Items, Item{})
}

// SetEventName names the current event.
func (p *Payload) SetEventName(name string) {
	p.SetValueOnPath(mapping.PathEventName, name)
}

// SetValueOnPath parses path and writes v there. See Set.
func (p *Payload) SetValueOnPath(path string, v models.Value) {
	p.Set(mapping.ParseTarget(path), v)
}

// Set writes v into the container named by t. Writes that have nowhere to
// go are dropped: nil values, unknown containers, item writes before any
// item exists, and field names that would replace a container.
func (p *Payload) Set(t mapping.Target, v models.Value) {
	if v == nil || t.Field == "" {
		return
	}
	switch t.Container {
	case mapping.ContainerRoot:
		switch t.Field {
		case FieldEvents, FieldUserProperties, FieldUserData:
			return
		}
		set(&p.fields, t.Field, v)
	case mapping.ContainerEvent:
		if t.Field == FieldParams {
			return
		}
		set(&p.event().Fields, t.Field, v)
	case mapping.ContainerParams:
		if t.Field == FieldItems {
			return
		}
		set(&p.params().Fields, t.Field, v)
	case mapping.ContainerItem:
		if item := p.currentItem(); item != nil {
			item[t.Field] = v
		}
	case mapping.ContainerUserProperty:
		if p.userProperties == nil {
			p.userProperties = map[string]UserProperty{}
		}
		p.userProperties[t.Field] = UserProperty{Value: v}
	case mapping.ContainerUserData:
		p.setUserData(t.Field, v)
	case mapping.ContainerAddress:
		p.setAddress(t.Field, v)
	}
}

func (p *Payload) setUserData(field string, v models.Value) {
	switch field {
	case FieldEmailAddress, FieldPhoneNumber:
		raw, ok := utils.ToString(v)
		if !ok {
			return
		}
		u := p.user()
		if field == FieldEmailAddress {
			u.EmailAddresses = addUnique(u.EmailAddresses, schema.HashEmailAddress(raw))
		} else {
			u.PhoneNumbers = addUnique(u.PhoneNumbers, schema.HashPhoneNumber(raw))
		}
	case FieldAddress:
		return
	default:
		set(&p.user().Fields, field, v)
	}
}

func (p *Payload) setAddress(field string, v models.Value) {
	switch field {
	case FieldFirstName, FieldLastName, FieldStreet:
		raw, ok := utils.ToString(v)
		if !ok {
			return
		}
		if field == FieldStreet {
			v = schema.HashStreet(raw)
		} else {
			v = schema.HashName(raw)
		}
	}
	if addr := p.address(); addr != nil {
		addr[field] = v
	}
}

func addUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

// ConvertToAppPayload renames client_id to app_instance_id, as app streams
// expect. It is a no-op when client_id is absent.
func (p *Payload) ConvertToAppPayload() *Payload {
	if id, ok := p.fields[FieldClientID]; ok {
		p.fields[FieldAppInstanceID] = id
		delete(p.fields, FieldClientID)
	}
	return p
}

// Field returns a top-level scalar field.
func (p *Payload) Field(name string) (models.Value, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// EventField returns a scalar field of the current event.
func (p *Payload) EventField(name string) (models.Value, bool) {
	if len(p.events) == 0 {
		return nil, false
	}
	v, ok := p.events[0].Fields[name]
	return v, ok
}

// Param returns a scalar parameter of the current event.
func (p *Payload) Param(name string) (models.Value, bool) {
	if len(p.events) == 0 || p.events[0].Params == nil {
		return nil, false
	}
	v, ok := p.events[0].Params.Fields[name]
	return v, ok
}

// Items returns copies of the current event's items in order.
func (p *Payload) Items() []Item {
	if len(p.events) == 0 || p.events[0].Params == nil {
		return nil
	}
	out := make([]Item, len(p.events[0].Params.Items))
	for i, item := range p.events[0].Params.Items {
		out[i] = maps.Clone(item)
	}
	return out
}

// UserProperty returns the wrapped value of a user property.
func (p *Payload) UserProperty(name string) (UserProperty, bool) {
	prop, ok := p.userProperties[name]
	return prop, ok
}

// EmailAddressHashes returns the hashed email addresses in insertion order.
func (p *Payload) EmailAddressHashes() []string {
	if p.userData == nil {
		return nil
	}
	return slices.Clone(p.userData.EmailAddresses)
}

// PhoneNumberHashes returns the hashed phone numbers in insertion order.
func (p *Payload) PhoneNumberHashes() []string {
	if p.userData == nil {
		return nil
	}
	return slices.Clone(p.userData.PhoneNumbers)
}

// UserDataField returns a user-data field other than the hash lists.
func (p *Payload) UserDataField(name string) (models.Value, bool) {
	if p.userData == nil {
		return nil, false
	}
	v, ok := p.userData.Fields[name]
	return v, ok
}

// AddressField returns a field of the user address.
func (p *Payload) AddressField(name string) (models.Value, bool) {
	if p.userData == nil || len(p.userData.Address) == 0 {
		return nil, false
	}
	v, ok := p.userData.Address[0][name]
	return v, ok
}
