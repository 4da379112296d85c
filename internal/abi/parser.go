package abi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// maximum nesting depth when resolving composite types; anything deeper
// is treated as a cycle
const maxTypeDepth = 16

type rawMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
}

type rawEntry struct {
	Type     string      `json:"type"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind,omitempty"`
	Members  []rawMember `json:"members,omitempty"`
	Variants []rawMember `json:"variants,omitempty"`
	Keys     []rawMember `json:"keys,omitempty"`
	Data     []rawMember `json:"data,omitempty"`
}

// parser resolves raw ABI entries against a per-contract symbol table.
type parser struct {
	structs map[string]rawEntry
	enums   map[string]rawEntry
}

// Parse normalizes a contract ABI (Cairo 0 or Cairo 1 JSON form) into
// event schemas with fully resolved type trees. Events referencing
// unresolvable or cyclic types are dropped; such events decode as
// "Unknown" downstream, which preserves the raw arrays.
func Parse(raw json.RawMessage) (*ContractAbi, error) {
	var entries []rawEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse abi json: %w", err)
	}

	p := &parser{
		structs: make(map[string]rawEntry),
		enums:   make(map[string]rawEntry),
	}

	for _, e := range entries {
		switch e.Type {
		case "struct":
			p.structs[e.Name] = e
			p.structs[shortName(e.Name)] = e
		case "enum":
			p.enums[e.Name] = e
			p.enums[shortName(e.Name)] = e
		}
	}

	contractAbi := &ContractAbi{}

	for _, e := range entries {
		if e.Type != "event" {
			continue
		}

		// Cairo 1 outer event enums only reference the per-variant
		// event structs, which appear as their own entries
		if e.Kind == "enum" {
			continue
		}

		schema, err := p.parseEvent(e)
		if err != nil {
			// undecodable schema, fall through to "Unknown" at decode time
			continue
		}

		contractAbi.Events = append(contractAbi.Events, schema)
	}

	contractAbi.index()

	return contractAbi, nil
}

func (p *parser) parseEvent(e rawEntry) (*EventSchema, error) {
	name := shortName(e.Name)

	schema := &EventSchema{
		Name:     name,
		FullName: e.Name,
		Selector: Selector(name),
	}

	switch {
	case e.Kind == "struct":
		// Cairo 1 event struct; member kind tags key vs data fields
		for _, m := range e.Members {
			t, err := p.resolveType(m.Type, 0, map[string]bool{})
			if err != nil {
				return nil, err
			}
			schema.Fields = append(schema.Fields, EventField{
				Name:  m.Name,
				Type:  t,
				IsKey: m.Kind == "key",
			})
		}
	case e.Kind == "":
		// Cairo 0 events carry separate keys and data lists
		for _, m := range e.Keys {
			t, err := p.resolveType(m.Type, 0, map[string]bool{})
			if err != nil {
				return nil, err
			}
			schema.Fields = append(schema.Fields, EventField{Name: m.Name, Type: t, IsKey: true})
		}
		for _, m := range e.Data {
			t, err := p.resolveType(m.Type, 0, map[string]bool{})
			if err != nil {
				return nil, err
			}
			schema.Fields = append(schema.Fields, EventField{Name: m.Name, Type: t, IsKey: false})
		}
	default:
		return nil, fmt.Errorf("unsupported event kind %q", e.Kind)
	}

	return schema, nil
}

// primitive maps every felt-backed scalar the ABI may reference to its
// canonical short name
var primitives = map[string]string{
	"core::felt252": TypeFelt252,
	"felt252":       TypeFelt252,
	"felt":          TypeFelt252,

	"core::integer::u8":   TypeU8,
	"core::integer::u16":  TypeU16,
	"core::integer::u32":  TypeU32,
	"core::integer::u64":  TypeU64,
	"core::integer::u128": TypeU128,
	"core::integer::u256": TypeU256,
	"u8":                  TypeU8,
	"u16":                 TypeU16,
	"u32":                 TypeU32,
	"u64":                 TypeU64,
	"u128":                TypeU128,
	"u256":                TypeU256,

	"core::bool": TypeBool,
	"bool":       TypeBool,

	"core::starknet::contract_address::ContractAddress": TypeContractAddress,
	"ContractAddress": TypeContractAddress,

	// felt-sized identifiers without dedicated rendering
	"core::starknet::class_hash::ClassHash":   TypeFelt252,
	"core::starknet::eth_address::EthAddress": TypeFelt252,
}

const optionPrefix = "core::option::Option::<"

func (p *parser) resolveType(typeStr string, depth int, visiting map[string]bool) (*Type, error) {
	if depth > maxTypeDepth {
		return nil, fmt.Errorf("type nesting exceeds %d levels", maxTypeDepth)
	}

	typeStr = strings.TrimSpace(typeStr)

	// unit type, e.g. a payload-less enum variant
	if typeStr == "()" {
		return &Type{Kind: KindStruct, Name: "()"}, nil
	}

	if prim, ok := primitives[typeStr]; ok {
		return &Type{Kind: KindPrimitive, Name: prim}, nil
	}

	if strings.HasPrefix(typeStr, optionPrefix) && strings.HasSuffix(typeStr, ">") {
		innerStr := typeStr[len(optionPrefix) : len(typeStr)-1]
		inner, err := p.resolveType(innerStr, depth+1, visiting)
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindOption, Name: "Option", Inner: inner}, nil
	}

	if visiting[typeStr] {
		return nil, fmt.Errorf("cyclic type reference through %q", typeStr)
	}
	visiting[typeStr] = true
	defer delete(visiting, typeStr)

	if raw, ok := p.structs[typeStr]; ok {
		t := &Type{Kind: KindStruct, Name: shortName(raw.Name)}
		for _, m := range raw.Members {
			mt, err := p.resolveType(m.Type, depth+1, visiting)
			if err != nil {
				return nil, err
			}
			t.Members = append(t.Members, Member{Name: m.Name, Type: mt})
		}
		return t, nil
	}

	if raw, ok := p.enums[typeStr]; ok {
		t := &Type{Kind: KindEnum, Name: shortName(raw.Name)}
		for _, v := range raw.Variants {
			vt, err := p.resolveType(v.Type, depth+1, visiting)
			if err != nil {
				return nil, err
			}
			t.Members = append(t.Members, Member{Name: v.Name, Type: vt})
		}
		return t, nil
	}

	return nil, fmt.Errorf("unknown type %q", typeStr)
}

func shortName(full string) string {
	if idx := strings.LastIndex(full, "::"); idx != -1 {
		return full[idx+2:]
	}
	return full
}
