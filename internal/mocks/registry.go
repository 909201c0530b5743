package mocks

import "github.com/fatalSec/DaliVM/internal/value"

// Registry is the four-table mock-dispatch surface spec.md §4.7 names:
// static-method hooks, virtual-method hooks, static-field values, and
// instance factories, all keyed by the exact "Class;->name" trace string
// (the resolved divergence from dispatch.py's substring-containment match —
// see DESIGN.md).
type Registry struct {
	Config Config

	staticHooks  map[string]Hook
	virtualHooks map[string]Hook
	staticFields map[string]value.Value
}

// New builds a Registry wired with every bundled hook and static field,
// using cfg for the tunables spec.md §6's configuration table lists
// (package_name, signature_bytes, sdk_int).
func New(cfg Config) *Registry {
	r := &Registry{Config: cfg}
	r.registerVirtualHooks()
	r.registerStaticHooks()
	r.registerStaticFields()
	return r
}

// registerVirtualHooks wires ANDROID_VIRTUAL_HOOKS plus the Java-surface
// instance methods spec.md §4.7 bundles (String/StringBuilder/List/
// Iterator), all keyed by full "Lfully/qualified/Class;->name".
func (r *Registry) registerVirtualHooks() {
	r.virtualHooks = map[string]Hook{
		"Landroid/content/Context;->getPackageManager":         r.hookContextGetPackageManager,
		"Landroid/content/Context;->getPackageName":            r.hookContextGetPackageName,
		"Landroid/content/pm/PackageManager;->getPackageInfo":  r.hookPMGetPackageInfo,
		"Landroid/content/pm/PackageManager;->getInstalledPackages": r.hookPMGetInstalledPackages,
		"Landroid/content/pm/Signature;->toByteArray":          r.hookSignatureToByteArray,
		"Landroid/content/pm/Signature;->toCharsString":        r.hookSignatureToCharsString,
		"Landroid/content/pm/Signature;->hashCode":              r.hookSignatureHashCode,

		"Ljava/lang/Class;->getMethod":          r.hookClassGetMethod,
		"Ljava/lang/Class;->getField":           r.hookClassGetField,
		"Ljava/lang/reflect/Method;->invoke":    r.hookMethodInvoke,
		"Ljava/lang/reflect/Field;->get":        r.hookFieldGet,
		"Ljava/lang/Throwable;->getCause":       r.hookThrowableGetCause,

		"Ljava/lang/String;->length":      r.hookStringLength,
		"Ljava/lang/String;->charAt":      r.hookStringCharAt,
		"Ljava/lang/String;->toCharArray": r.hookStringToCharArray,
		"Ljava/lang/String;->getBytes":    r.hookStringGetBytes,
		"Ljava/lang/String;->intern":      r.hookStringIntern,
		"Ljava/lang/StringBuilder;-><init>":  r.hookStringBuilderInit,
		"Ljava/lang/StringBuilder;->append":  r.hookStringBuilderAppend,
		"Ljava/lang/StringBuilder;->toString": r.hookStringBuilderToString,

		"Ljava/util/List;->iterator":      r.hookListIterator,
		"Ljava/util/List;->size":          r.hookListSize,
		"Ljava/util/List;->get":           r.hookListGet,
		"Ljava/util/ArrayList;->iterator": r.hookListIterator,
		"Ljava/util/ArrayList;->size":     r.hookListSize,
		"Ljava/util/ArrayList;->get":      r.hookListGet,
		"Ljava/util/Iterator;->hasNext":   r.hookIteratorHasNext,
		"Ljava/util/Iterator;->next":      r.hookIteratorNext,

		"Ljava/lang/Boolean;->booleanValue":  r.hookBooleanBooleanValue,
		"Ljava/lang/CharSequence;->toString": r.hookCharSequenceToString,
	}
}

// registerStaticHooks wires ANDROID_STATIC_HOOKS plus the bundled static
// utility surface (Math/Arrays/System/Base64/TextUtils/Integer/Boolean
// valueOf-style factories).
func (r *Registry) registerStaticHooks() {
	r.staticHooks = map[string]Hook{
		"Ljava/lang/Class;->forName": r.hookClassForName,

		"Ljava/lang/String;->valueOf": r.hookStringValueOf,

		"Ljava/lang/Math;->abs": r.hookMathAbs,
		"Ljava/lang/Math;->max": r.hookMathMax,
		"Ljava/lang/Math;->min": r.hookMathMin,

		"Ljava/util/Arrays;->copyOf":  r.hookArraysCopyOf,
		"Ljava/lang/System;->arraycopy": r.hookSystemArraycopy,

		"Landroid/util/Base64;->decode": r.hookBase64Decode,

		"Landroid/text/TextUtils;->isEmpty": r.hookTextUtilsIsEmpty,
		"Ljava/lang/Integer;->valueOf":       r.hookIntegerValueOf,
		"Ljava/lang/Boolean;->valueOf":       r.hookBooleanValueOf,
	}
}

// registerStaticFields ports ANDROID_STATIC_FIELDS.
func (r *Registry) registerStaticFields() {
	trueObj := value.NewObject("Ljava/lang/Boolean;")
	trueObj.Payload = &value.HostValue{Bool: true}
	falseObj := value.NewObject("Ljava/lang/Boolean;")
	falseObj.Payload = &value.HostValue{Bool: false}

	r.staticFields = map[string]value.Value{
		"Landroid/os/Build$VERSION;->SDK_INT": value.Int32(r.Config.SDKInt),

		"Ljava/lang/Boolean;->TRUE":  value.ObjectVal(trueObj),
		"Ljava/lang/Boolean;->FALSE": value.ObjectVal(falseObj),

		"Ljava/lang/Integer;->TYPE":   value.ClassRef("int"),
		"Ljava/lang/Long;->TYPE":      value.ClassRef("long"),
		"Ljava/lang/Boolean;->TYPE":   value.ClassRef("boolean"),
		"Ljava/lang/Byte;->TYPE":      value.ClassRef("byte"),
		"Ljava/lang/Character;->TYPE": value.ClassRef("char"),
		"Ljava/lang/Short;->TYPE":     value.ClassRef("short"),
		"Ljava/lang/Float;->TYPE":     value.ClassRef("float"),
		"Ljava/lang/Double;->TYPE":    value.ClassRef("double"),
		"Ljava/lang/Void;->TYPE":      value.ClassRef("void"),
	}
}

// StaticHook looks up a static-method hook by its exact "Class;->name" key.
func (r *Registry) StaticHook(key string) (Hook, bool) {
	h, ok := r.staticHooks[key]
	return h, ok
}

// VirtualHook looks up a virtual-method hook (applies to direct/interface/
// super dispatch too, per spec.md §4.7) by its exact key.
func (r *Registry) VirtualHook(key string) (Hook, bool) {
	h, ok := r.virtualHooks[key]
	return h, ok
}

// StaticField looks up a mock static-field value, consulted by sget* before
// the real statefield.Store per spec.md §4.7.
func (r *Registry) StaticField(key string) (value.Value, bool) {
	v, ok := r.staticFields[key]
	return v, ok
}
