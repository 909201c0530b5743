// Package value implements the tagged-union Value domain that flows through
// registers, fields, and arrays during emulation.
package value

import "fmt"

// Kind tags the concrete shape a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	KindChar
	KindString
	KindObject
	KindArray
	KindClassRef
	KindException
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindClassRef:
		return "class-ref"
	case KindException:
		return "exception"
	default:
		return "unknown"
	}
}

// HostValue is the small sum of host-side representations mock hooks attach
// to an Object's payload (spec.md §9 "Dynamic fields on object instances").
type HostValue struct {
	Str    string
	Bytes  []byte
	List   []Value
	Bool   bool
	Int    int64
	HasStr bool
	HasInt bool
}

// Object is a class instance: a name, dynamic fields, and an opaque payload
// mock hooks use to carry host-side state (boxed numerics, StringBuilder
// backing strings, reflection metadata).
type Object struct {
	ClassName string
	Fields    map[string]Value
	Payload   *HostValue
	// MockType records which bundled mock factory produced this instance
	// (Context, PackageManager, Signature, Iterator, List, Class, Method,
	// Field...) so hooks that receive it back can specialize behavior
	// without re-deriving it from ClassName.
	MockType string
	// MockMeta carries small factory-specific side tables (e.g. a
	// reflection Method object's resolved method_name/class_name, or a
	// List/Iterator's backing slice) without widening Value itself.
	MockMeta map[string]any
}

func NewObject(className string) *Object {
	return &Object{ClassName: className, Fields: map[string]Value{}}
}

func (o *Object) Field(name string) (Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

func (o *Object) SetField(name string, v Value) {
	o.Fields[name] = v
}

// Array carries an element-type descriptor, a length, and element Values.
type Array struct {
	ElemDesc string
	Data     []Value
}

func NewArray(elemDesc string, length int) *Array {
	return &Array{ElemDesc: elemDesc, Data: make([]Value, length)}
}

func (a *Array) Len() int { return len(a.Data) }

// Value is the tagged union described by spec.md §3.
type Value struct {
	Kind   Kind
	I32    int32
	I64    int64
	F32    float32
	F64    float64
	Bool   bool
	Char   uint16
	Str    string
	Obj    *Object
	Arr    *Array
	ClsRef string
}

func Null() Value                     { return Value{Kind: KindNull} }
func Int32(v int32) Value             { return Value{Kind: KindInt32, I32: v} }
func Int64(v int64) Value             { return Value{Kind: KindInt64, I64: v} }
func Float32(v float32) Value         { return Value{Kind: KindFloat32, F32: v} }
func Float64(v float64) Value         { return Value{Kind: KindFloat64, F64: v} }
func Bool(v bool) Value               { return Value{Kind: KindBool, Bool: v} }
func Char(v uint16) Value             { return Value{Kind: KindChar, Char: v} }
func ObjectVal(o *Object) Value       { return Value{Kind: KindObject, Obj: o} }
func ArrayVal(a *Array) Value         { return Value{Kind: KindArray, Arr: a} }
func ClassRef(name string) Value      { return Value{Kind: KindClassRef, ClsRef: name} }
func Exception(o *Object) Value       { return Value{Kind: KindException, Obj: o} }

// NewString makes a boxed java.lang.String instance with its payload set, which is
// how const-string and every string-producing mock hook represent text
// (spec.md §4.1 "boxes the result as a String object with internal_value").
func NewString(s string) Value {
	o := NewObject("Ljava/lang/String;")
	o.Payload = &HostValue{Str: s, HasStr: true}
	return Value{Kind: KindString, Obj: o, Str: s}
}

// IsTruthy mirrors the Dalvik null/non-null-as-int convention used by
// if-eqz/if-nez family opcodes (original_source/dalvik_vm/opcodes/control.py
// execute_if_testz: null -> 0, any other object -> 1).
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindInt32:
		return v.I32 != 0
	case KindInt64:
		return v.I64 != 0
	case KindBool:
		return v.Bool
	default:
		return true
	}
}

// AsInt32 extracts an integer value from register-width-agnostic contexts
// (spec.md's Registers.get_int fallback-to-zero behavior, mirrored here for
// non-fatal paths like switch keys and array indices).
func (v Value) AsInt32() int32 {
	switch v.Kind {
	case KindInt32:
		return v.I32
	case KindInt64:
		return int32(v.I64)
	case KindChar:
		return int32(v.Char)
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (v Value) AsInt64() int64 {
	switch v.Kind {
	case KindInt64:
		return v.I64
	case KindInt32:
		return int64(v.I32)
	default:
		return 0
	}
}

func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case KindFloat64:
		return v.F64
	case KindFloat32:
		return float64(v.F32)
	case KindInt32:
		return float64(v.I32)
	case KindInt64:
		return float64(v.I64)
	default:
		return 0
	}
}

// StringPayload returns the backing text of a boxed String/StringBuilder
// object, the shape the mocks package and the invoke opcodes inspect constantly.
func (v Value) StringPayload() (string, bool) {
	if v.Obj != nil && v.Obj.Payload != nil && v.Obj.Payload.HasStr {
		return v.Obj.Payload.Str, true
	}
	if v.Kind == KindString {
		return v.Str, true
	}
	return "", false
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt32:
		return fmt.Sprintf("%d", v.I32)
	case KindInt64:
		return fmt.Sprintf("%d", v.I64)
	case KindFloat32:
		return fmt.Sprintf("%g", v.F32)
	case KindFloat64:
		return fmt.Sprintf("%g", v.F64)
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindChar:
		return fmt.Sprintf("%c", rune(v.Char))
	case KindString:
		if s, ok := v.StringPayload(); ok {
			return fmt.Sprintf("%q", s)
		}
		return `""`
	case KindObject, KindException:
		if v.Obj == nil {
			return "<nil-object>"
		}
		if s, ok := v.StringPayload(); ok {
			return fmt.Sprintf("%s(%q)", v.Obj.ClassName, s)
		}
		return fmt.Sprintf("<%s>", v.Obj.ClassName)
	case KindArray:
		if v.Arr == nil {
			return "<nil-array>"
		}
		return fmt.Sprintf("<%s[%d]>", v.Arr.ElemDesc, v.Arr.Len())
	case KindClassRef:
		return fmt.Sprintf("<class %s>", v.ClsRef)
	default:
		return "<unknown>"
	}
}
