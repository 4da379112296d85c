// Package abi parses Cairo contract ABIs into event schemas and resolves
// raw event keys to candidate schemas via the event selector.
package abi

// TypeKind tags a node in the resolved ABI type tree.
type TypeKind uint8

const (
	// KindPrimitive is a felt-backed scalar: felt252, u8..u256, bool, ContractAddress
	KindPrimitive TypeKind = iota
	// KindStruct is a named composite with ordered members
	KindStruct
	// KindEnum is a named tagged union
	KindEnum
	// KindOption is core::option::Option<T>
	KindOption
)

// Primitive type names used throughout the decoder.
const (
	TypeFelt252         = "felt252"
	TypeU8              = "u8"
	TypeU16             = "u16"
	TypeU32             = "u32"
	TypeU64             = "u64"
	TypeU128            = "u128"
	TypeU256            = "u256"
	TypeBool            = "bool"
	TypeContractAddress = "ContractAddress"
)

// Type is a node in the resolved ABI type tree. Named references from
// the raw ABI are resolved against the per-contract symbol table at
// parse time, so consumers never chase names.
type Type struct {
	Kind TypeKind

	// Name is the primitive name or the composite's short name
	Name string

	// Inner is the Option payload type; set only for KindOption
	Inner *Type

	// Members are struct members or enum variants, in ABI order
	Members []Member
}

// Member is a named struct member or enum variant.
type Member struct {
	Name string
	Type *Type
}

// FeltSize returns how many field elements a value of this type occupies.
func (t *Type) FeltSize() int {
	switch t.Kind {
	case KindPrimitive:
		if t.Name == TypeU256 {
			return 2
		}
		return 1
	case KindStruct:
		size := 0
		for _, m := range t.Members {
			size += m.Type.FeltSize()
		}
		return size
	case KindOption:
		// tag plus optional payload; actual consumption is tag-driven
		return 1 + t.Inner.FeltSize()
	case KindEnum:
		// tag plus the widest variant; actual consumption is tag-driven
		max := 0
		for _, m := range t.Members {
			if s := m.Type.FeltSize(); s > max {
				max = s
			}
		}
		return 1 + max
	}
	return 1
}

// EventField is one field of an event schema. Key fields are consumed
// from the raw key stream, the rest from the data stream.
type EventField struct {
	Name  string
	Type  *Type
	IsKey bool
}

// EventSchema is a single decodable event shape.
type EventSchema struct {
	// Name is the short event name, e.g. "Transfer"
	Name string

	// FullName is the fully qualified Cairo path from the ABI
	FullName string

	// Selector is sn_keccak(Name) in normalized 0x-hex form
	Selector string

	// Fields are the event's fields in ABI order
	Fields []EventField
}

// KeyFieldCount returns the number of fields flagged as keys.
func (s *EventSchema) KeyFieldCount() int {
	n := 0
	for _, f := range s.Fields {
		if f.IsKey {
			n++
		}
	}
	return n
}

// ContractAbi holds every event schema parsed from one contract's ABI,
// indexed by selector and by short name.
type ContractAbi struct {
	Events []*EventSchema

	bySelector map[string][]*EventSchema
	byName     map[string]*EventSchema
}

// BySelector returns all candidate schemas for a normalized selector.
// Multiple candidates occur when enum variants of an outer event share
// a selector; the decoder disambiguates by shape.
func (a *ContractAbi) BySelector(selector string) []*EventSchema {
	return a.bySelector[selector]
}

// ByName returns the schema with the given short name, or nil.
func (a *ContractAbi) ByName(name string) *EventSchema {
	return a.byName[name]
}

func (a *ContractAbi) index() {
	a.bySelector = make(map[string][]*EventSchema, len(a.Events))
	a.byName = make(map[string]*EventSchema, len(a.Events))

	for _, ev := range a.Events {
		a.bySelector[ev.Selector] = append(a.bySelector[ev.Selector], ev)
		a.byName[ev.Name] = ev
	}
}
