package data

import "encoding/json"

// Optional is a JSON field that remembers whether it appeared in the payload
// and whether it was an explicit null. The zero value means "not sent".
type Optional[T any] struct {
	Set   bool // the key was present in the payload
	Null  bool // the key was present with the value null
	Value T
}

// Some returns a present, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// Null returns a present Optional carrying an explicit null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports whether the field was sent with a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// UnmarshalJSON implements json.Unmarshaler. encoding/json only calls it for
// keys that are present, which is what makes Set meaningful.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}
