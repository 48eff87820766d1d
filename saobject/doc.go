// Package saobject defines the canonical record format served by SAP
// providers, and the pipeline that produces it.
//
// A record on the wire is a JSON object carrying three reserved keys,
// __id__, __types__ and __source__, plus any number of property keys. The
// reserved keys come from the record header and are never overwritten by
// property data.
//
// Property values are canonicalized by EncodeValue: nested maps and
// sequences are encoded recursively, time.Time values become Timestamp
// tagged primitives, and Timestamp and Link emit their tagged wire forms.
//
// Normalize validates a whole batch of raw records against the schema and
// encodes every field. Deduplicate then drops records sharing an identity
// key, keeping the first occurrence in input order.
package saobject
