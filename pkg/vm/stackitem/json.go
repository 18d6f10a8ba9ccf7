package stackitem

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
)

// jsonItem mirrors the reference client's {"type":..., "value":...}
// contract-value JSON encoding, used by StdLib.jsonSerialize/jsonDeserialize
// (spec §4.E.8).
type jsonItem struct {
	Type  string      `json:"type"`
	Value interface{} `json:"value,omitempty"`
}

// ToJSON renders item using the contract-value JSON convention: every
// item is a {"type","value"} object, with booleans as JSON booleans,
// integers as decimal strings, byte-like items base64, and containers
// recursively.
func ToJSON(item Item) ([]byte, error) {
	v, err := toJSONValue(item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func toJSONValue(item Item) (jsonItem, error) {
	switch it := item.(type) {
	case Null:
		return jsonItem{Type: "Any"}, nil
	case Bool:
		return jsonItem{Type: "Boolean", Value: bool(it)}, nil
	case *Integer:
		return jsonItem{Type: "Integer", Value: it.val.String()}, nil
	case *ByteString:
		return jsonItem{Type: "ByteString", Value: base64.StdEncoding.EncodeToString(it.val)}, nil
	case *Buffer:
		return jsonItem{Type: "Buffer", Value: base64.StdEncoding.EncodeToString(it.val)}, nil
	case *Array:
		elems := make([]jsonItem, len(it.value))
		for i, e := range it.value {
			v, err := toJSONValue(e)
			if err != nil {
				return jsonItem{}, err
			}
			elems[i] = v
		}
		return jsonItem{Type: "Array", Value: elems}, nil
	case *Struct:
		elems := make([]jsonItem, len(it.value))
		for i, e := range it.value {
			v, err := toJSONValue(e)
			if err != nil {
				return jsonItem{}, err
			}
			elems[i] = v
		}
		return jsonItem{Type: "Struct", Value: elems}, nil
	case *Map:
		type kv struct {
			Key   jsonItem `json:"key"`
			Value jsonItem `json:"value"`
		}
		pairs := make([]kv, len(it.elems))
		for i, e := range it.elems {
			k, err := toJSONValue(e.Key)
			if err != nil {
				return jsonItem{}, err
			}
			v, err := toJSONValue(e.Value)
			if err != nil {
				return jsonItem{}, err
			}
			pairs[i] = kv{Key: k, Value: v}
		}
		return jsonItem{Type: "Map", Value: pairs}, nil
	default:
		return jsonItem{}, ErrInvalidConversion
	}
}

// FromJSON parses the contract-value JSON convention ToJSON produces.
func FromJSON(b []byte) (Item, error) {
	var raw struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return fromJSONRaw(raw.Type, raw.Value)
}

func fromJSONRaw(typ string, value json.RawMessage) (Item, error) {
	switch typ {
	case "Any":
		return Null{}, nil
	case "Boolean":
		var v bool
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, err
		}
		return Bool(v), nil
	case "Integer":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, ErrInvalidConversion
		}
		return &Integer{val: n}, nil
	case "ByteString", "Buffer":
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if typ == "Buffer" {
			return &Buffer{val: b}, nil
		}
		return &ByteString{val: b}, nil
	case "Array", "Struct":
		var raws []struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(value, &raws); err != nil {
			return nil, err
		}
		items := make([]Item, len(raws))
		for i, r := range raws {
			it, err := fromJSONRaw(r.Type, r.Value)
			if err != nil {
				return nil, err
			}
			items[i] = it
		}
		if typ == "Struct" {
			return &Struct{value: items}, nil
		}
		return &Array{value: items}, nil
	case "Map":
		var raws []struct {
			Key struct {
				Type  string          `json:"type"`
				Value json.RawMessage `json:"value"`
			} `json:"key"`
			Value struct {
				Type  string          `json:"type"`
				Value json.RawMessage `json:"value"`
			} `json:"value"`
		}
		if err := json.Unmarshal(value, &raws); err != nil {
			return nil, err
		}
		m := NewMap()
		for _, r := range raws {
			k, err := fromJSONRaw(r.Key.Type, r.Key.Value)
			if err != nil {
				return nil, err
			}
			v, err := fromJSONRaw(r.Value.Type, r.Value.Value)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	default:
		return nil, ErrInvalidConversion
	}
}
