package mocks

import (
	"encoding/hex"
	"hash/crc32"

	"github.com/fatalSec/DaliVM/internal/value"
)

// Hook is the mock-dispatch call shape spec.md §4.7 specifies:
// (interpreter args, trace text) -> Value, with args[0] the receiver for a
// virtual hook. Hooks don't need an interpreter handle in this port — none
// of the ported hooks call back into the interpreter for a callback — so
// the signature drops vm compared to the original's (vm, args, trace_str).
type Hook func(args []value.Value, traceText string) (value.Value, error)

func argValue(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Null()
	}
	return args[i]
}

func stringArg(v value.Value) (string, bool) { return v.StringPayload() }

// hookContextGetPackageManager ports _hook_context_get_package_manager.
func (r *Registry) hookContextGetPackageManager(args []value.Value, _ string) (value.Value, error) {
	return r.newPackageManager(), nil
}

// hookContextGetPackageName ports _hook_context_get_package_name.
func (r *Registry) hookContextGetPackageName(args []value.Value, _ string) (value.Value, error) {
	return value.NewString(r.Config.PackageName), nil
}

// hookPMGetPackageInfo ports _hook_pm_get_package_info: args[0] is the
// receiver PackageManager, args[1] the requested package name string.
func (r *Registry) hookPMGetPackageInfo(args []value.Value, _ string) (value.Value, error) {
	name := ""
	if s, ok := stringArg(argValue(args, 1)); ok {
		name = s
	}
	return r.newPackageInfo(name), nil
}

// hookPMGetInstalledPackages ports _hook_pm_get_installed_packages: a
// one-element List<PackageInfo>.
func (r *Registry) hookPMGetInstalledPackages(args []value.Value, _ string) (value.Value, error) {
	o := value.NewObject("Ljava/util/ArrayList;")
	o.MockType = "List"
	pkgInfo := r.newPackageInfo("")
	o.MockMeta = map[string]any{"list": []value.Value{pkgInfo}}
	return value.ObjectVal(o), nil
}

func certBytesOf(receiver value.Value, fallback []byte) []byte {
	if receiver.Obj != nil && receiver.Obj.Payload != nil && receiver.Obj.Payload.Bytes != nil {
		return receiver.Obj.Payload.Bytes
	}
	return fallback
}

// hookSignatureToByteArray ports _hook_signature_to_byte_array.
func (r *Registry) hookSignatureToByteArray(args []value.Value, _ string) (value.Value, error) {
	cert := certBytesOf(argValue(args, 0), r.Config.SignatureBytes)
	arr := value.NewArray("B", len(cert))
	for i, b := range cert {
		arr.Data[i] = value.Int32(int32(int8(b)))
	}
	return value.ArrayVal(arr), nil
}

// hookSignatureToCharsString ports _hook_signature_to_chars_string: a hex
// dump of the certificate bytes.
func (r *Registry) hookSignatureToCharsString(args []value.Value, _ string) (value.Value, error) {
	cert := certBytesOf(argValue(args, 0), r.Config.SignatureBytes)
	return value.NewString(hex.EncodeToString(cert)), nil
}

// hookSignatureHashCode ports _hook_signature_hashcode. Python's hash(bytes)
// is process-randomized and not worth reproducing bit-for-bit; this uses a
// stable CRC32 masked into Java's 31-bit positive int range instead, which
// is good enough for a value that only needs to be deterministic, not
// cross-compatible with a real JVM's Arrays.hashCode.
func (r *Registry) hookSignatureHashCode(args []value.Value, _ string) (value.Value, error) {
	cert := certBytesOf(argValue(args, 0), r.Config.SignatureBytes)
	h := int32(crc32.ChecksumIEEE(cert) & 0x7FFFFFFF)
	return value.Int32(h), nil
}

// --- Reflection hooks (Class/Method/Field), ported from reflection_hooks.py ---

// hookClassForName ports _hook_class_forname.
func (r *Registry) hookClassForName(args []value.Value, _ string) (value.Value, error) {
	o := value.NewObject("Ljava/lang/Class;")
	o.MockType = "Class"
	if name, ok := stringArg(argValue(args, 0)); ok {
		o.MockMeta = map[string]any{"class_name": name}
	}
	return value.ObjectVal(o), nil
}

// hookClassGetMethod ports _hook_class_getmethod: args[0] receiver Class,
// args[1] method-name string.
func (r *Registry) hookClassGetMethod(args []value.Value, _ string) (value.Value, error) {
	o := value.NewObject("Ljava/lang/reflect/Method;")
	o.MockType = "Method"
	meta := map[string]any{}
	if recv := argValue(args, 0); recv.Obj != nil && recv.Obj.MockMeta != nil {
		if cn, ok := recv.Obj.MockMeta["class_name"]; ok {
			meta["class_name"] = cn
		}
	}
	if name, ok := stringArg(argValue(args, 1)); ok {
		meta["method_name"] = name
	}
	o.MockMeta = meta
	return value.ObjectVal(o), nil
}

// hookClassGetField ports _hook_class_getfield: args[0] receiver Class,
// args[1] field-name string.
func (r *Registry) hookClassGetField(args []value.Value, _ string) (value.Value, error) {
	o := value.NewObject("Ljava/lang/reflect/Field;")
	o.MockType = "Field"
	meta := map[string]any{}
	if recv := argValue(args, 0); recv.Obj != nil && recv.Obj.MockMeta != nil {
		if cn, ok := recv.Obj.MockMeta["class_name"]; ok {
			meta["class_name"] = cn
		}
	}
	if name, ok := stringArg(argValue(args, 1)); ok {
		meta["field_name"] = name
	}
	o.MockMeta = meta
	return value.ObjectVal(o), nil
}

// hookMethodInvoke ports _hook_method_invoke's pattern-matched reflection
// shortcuts for the handful of Context/PackageManager methods apps commonly
// reach via reflection to dodge static analysis. args[0] is the receiver
// Method, args[1] the target object the call is invoked against, args[2]
// (if present) the Object[] argument array.
func (r *Registry) hookMethodInvoke(args []value.Value, _ string) (value.Value, error) {
	if len(args) < 2 {
		return value.Null(), nil
	}
	methodObj := argValue(args, 0)
	var methodName string
	if methodObj.Obj != nil && methodObj.Obj.MockMeta != nil {
		if mn, ok := methodObj.Obj.MockMeta["method_name"].(string); ok {
			methodName = mn
		}
	}

	switch methodName {
	case "getPackageManager":
		return r.newPackageManager(), nil
	case "getPackageName":
		return value.NewString(r.Config.PackageName), nil
	case "getPackageInfo":
		name := ""
		if len(args) > 2 {
			if args[2].Kind == value.KindArray && args[2].Arr != nil && args[2].Arr.Len() > 0 {
				if s, ok := stringArg(args[2].Arr.Data[0]); ok {
					name = s
				}
			}
		}
		return r.newPackageInfo(name), nil
	case "getInstalledPackages":
		return r.hookPMGetInstalledPackages(nil, "")
	case "getApplicationContext":
		return r.newContext(), nil
	case "getApplicationInfo":
		o := value.NewObject("Landroid/content/pm/ApplicationInfo;")
		o.MockType = "ApplicationInfo"
		return value.ObjectVal(o), nil
	default:
		return value.Null(), nil
	}
}

// hookFieldGet ports _hook_field_get, a stub that always returns null.
func (r *Registry) hookFieldGet(args []value.Value, _ string) (value.Value, error) {
	return value.Null(), nil
}

// hookThrowableGetCause ports _hook_throwable_getcause, a stub that always
// returns null.
func (r *Registry) hookThrowableGetCause(args []value.Value, _ string) (value.Value, error) {
	return value.Null(), nil
}
