package stackitem

import (
	"github.com/n3-core/node/pkg/io"
)

// MaxSerialized bounds the number of nested items Serialize/Deserialize
// will walk, guarding against adversarial depth/size blowup the same way
// the reference client's BinarySerializer does.
const MaxSerialized = 2048

// Serialize encodes item into the reference client's stack item binary
// format (type tag followed by a type-specific payload), used by
// StdLib.serialize/deserialize (spec §4.E.8).
func Serialize(item Item) ([]byte, error) {
	w := io.NewBufBinWriter()
	count := 0
	serializeTo(w.BinWriter, item, &count)
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

func serializeTo(w *io.BinWriter, item Item, count *int) {
	*count++
	if *count > MaxSerialized {
		w.Err = ErrInvalidConversion
		return
	}
	switch it := item.(type) {
	case Null:
		w.WriteB(byte(AnyT))
	case Bool:
		w.WriteB(byte(BooleanT))
		w.WriteBool(bool(it))
	case *Integer:
		w.WriteB(byte(IntegerT))
		w.WriteVarBytes(bigIntToBytes(it.val))
	case *ByteString:
		w.WriteB(byte(ByteStringT))
		w.WriteVarBytes(it.val)
	case *Buffer:
		w.WriteB(byte(BufferT))
		w.WriteVarBytes(it.val)
	case *Array:
		w.WriteB(byte(ArrayT))
		w.WriteVarUint(uint64(len(it.value)))
		for _, e := range it.value {
			serializeTo(w, e, count)
		}
	case *Struct:
		w.WriteB(byte(StructT))
		w.WriteVarUint(uint64(len(it.value)))
		for _, e := range it.value {
			serializeTo(w, e, count)
		}
	case *Map:
		w.WriteB(byte(MapT))
		w.WriteVarUint(uint64(len(it.elems)))
		for _, e := range it.elems {
			serializeTo(w, e.Key, count)
			serializeTo(w, e.Value, count)
		}
	default:
		w.Err = ErrInvalidConversion
	}
}

// Deserialize is the inverse of Serialize.
func Deserialize(b []byte) (Item, error) {
	r := io.NewBinReaderFromBuf(b)
	count := 0
	item := deserializeFrom(r, &count)
	if r.Err != nil {
		return nil, r.Err
	}
	return item, nil
}

func deserializeFrom(r *io.BinReader, count *int) Item {
	*count++
	if *count > MaxSerialized {
		r.Err = ErrInvalidConversion
		return nil
	}
	switch Type(r.ReadB()) {
	case AnyT:
		return Null{}
	case BooleanT:
		return Bool(r.ReadBool())
	case IntegerT:
		return &Integer{val: bytesToBigInt(r.ReadVarBytes())}
	case ByteStringT:
		return &ByteString{val: r.ReadVarBytes()}
	case BufferT:
		return &Buffer{val: r.ReadVarBytes()}
	case ArrayT:
		n := r.ReadVarUint()
		items := make([]Item, n)
		for i := range items {
			items[i] = deserializeFrom(r, count)
		}
		return &Array{value: items}
	case StructT:
		n := r.ReadVarUint()
		items := make([]Item, n)
		for i := range items {
			items[i] = deserializeFrom(r, count)
		}
		return &Struct{value: items}
	case MapT:
		n := r.ReadVarUint()
		m := NewMap()
		for i := uint64(0); i < n; i++ {
			k := deserializeFrom(r, count)
			v := deserializeFrom(r, count)
			m.Set(k, v)
		}
		return m
	default:
		r.Err = ErrInvalidConversion
		return nil
	}
}
