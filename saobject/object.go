package saobject

// Reserved keys present in every canonical object. They are set from the
// object header, never from the property bag.
const (
	IDKey     = "__id__"
	TypesKey  = "__types__"
	SourceKey = "__source__"
)

// Object describes a single record before encoding.
type Object struct {
	// ID identifies the record. It must be unique within Source.
	ID string
	// Types is an ordered list of type names for the record.
	Types []string
	// Source names the origin of the record.
	Source string
	// Properties holds the record's fields. Values may be scalars, tagged
	// primitives, or nested maps and slices.
	Properties map[string]any
}

// ToJSON returns the canonical wire form of the object. Every property
// value is passed through EncodeValue. The reserved keys are written last
// so that a property using a reserved name cannot clobber the header.
func (o Object) ToJSON() map[string]any {
	payload := make(map[string]any, len(o.Properties)+3)
	for key, value := range o.Properties {
		payload[key] = EncodeValue(value)
	}
	types := make([]any, len(o.Types))
	for i, t := range o.Types {
		types[i] = t
	}
	payload[IDKey] = o.ID
	payload[TypesKey] = types
	payload[SourceKey] = o.Source
	return payload
}

// Make builds the canonical wire form of a record in one call.
func Make(id string, types []string, source string, properties map[string]any) map[string]any {
	return Object{
		ID:         id,
		Types:      types,
		Source:     source,
		Properties: properties,
	}.ToJSON()
}
