// Package schema records the field lists negotiated with the feed per event type.
//
// A field list is fixed the first time it is negotiated and stays fixed until the
// channel closes (Reset). Column-major data frames are decoded by looking up a
// field's position with FieldIndex.
package schema
