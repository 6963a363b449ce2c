package asset

// ID identifies a fungible asset moved by the transfer capability.
// The zero value is invalid everywhere in the engine.
type ID string

// Valid reports whether the id is usable as an asset identifier.
func (id ID) Valid() bool {
	return id != ""
}

func (id ID) String() string {
	return string(id)
}
