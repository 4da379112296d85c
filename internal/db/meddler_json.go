package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/russross/meddler"
)

func init() {
	meddler.Register("jsonarray", StringArrayMeddler{})
	meddler.Register("jsonmap", JSONMapMeddler{})
}

// StringArrayMeddler stores a []string as a JSON text column. Event key
// and data arrays round-trip through it.
type StringArrayMeddler struct{}

func (StringArrayMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (StringArrayMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*[]string)
	if !ok {
		return fmt.Errorf("expected *[]string, got %T", fieldAddr)
	}

	if !ns.Valid || ns.String == "" {
		*ptr = nil
		return nil
	}

	return json.Unmarshal([]byte(ns.String), ptr)
}

func (StringArrayMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	arr, ok := field.([]string)
	if !ok {
		return nil, fmt.Errorf("expected []string, got %T", field)
	}

	if arr == nil {
		arr = []string{}
	}

	b, err := json.Marshal(arr)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// JSONMapMeddler stores a map[string]any as a JSON text column. Decoded
// event payloads round-trip through it.
type JSONMapMeddler struct{}

func (JSONMapMeddler) PreRead(fieldAddr interface{}) (scanTarget interface{}, err error) {
	return new(sql.NullString), nil
}

func (JSONMapMeddler) PostRead(fieldAddr, scanTarget interface{}) error {
	ns, ok := scanTarget.(*sql.NullString)
	if !ok {
		return fmt.Errorf("expected *sql.NullString, got %T", scanTarget)
	}

	ptr, ok := fieldAddr.(*map[string]any)
	if !ok {
		return fmt.Errorf("expected *map[string]any, got %T", fieldAddr)
	}

	if !ns.Valid || ns.String == "" {
		*ptr = map[string]any{}
		return nil
	}

	return json.Unmarshal([]byte(ns.String), ptr)
}

func (JSONMapMeddler) PreWrite(field interface{}) (saveValue interface{}, err error) {
	m, ok := field.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map[string]any, got %T", field)
	}

	if m == nil {
		m = map[string]any{}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	return string(b), nil
}
