package mocks

import "github.com/fatalSec/DaliVM/internal/value"

// androidMockClasses mirrors ANDROID_MOCK_CLASSES: classes Factory
// recognizes and can produce a pre-shaped instance for on new-instance or
// a reflective allocation, without ever running that class's own
// constructor bytecode.
var androidMockClasses = map[string]bool{
	"Landroid/content/Context;":           true,
	"Landroid/app/Activity;":              true, // extends Context
	"Landroid/app/Application;":           true, // extends Context
	"Landroid/content/pm/PackageManager;": true,
	"Landroid/content/pm/PackageInfo;":    true,
	"Landroid/content/pm/Signature;":      true,
}

// IsMockClass reports whether class has a bundled factory, the Go analogue
// of is_android_mock_class.
func IsMockClass(class string) bool { return androidMockClasses[class] }

func (r *Registry) newContext() value.Value {
	o := value.NewObject("Landroid/content/Context;")
	o.MockType = "Context"
	return value.ObjectVal(o)
}

func (r *Registry) newPackageManager() value.Value {
	o := value.NewObject("Landroid/content/pm/PackageManager;")
	o.MockType = "PackageManager"
	return value.ObjectVal(o)
}

func (r *Registry) newSignature(certBytes []byte) value.Value {
	o := value.NewObject("Landroid/content/pm/Signature;")
	o.MockType = "Signature"
	if certBytes == nil {
		certBytes = r.Config.SignatureBytes
	}
	o.Payload = &value.HostValue{Bytes: certBytes}
	return value.ObjectVal(o)
}

func (r *Registry) newPackageInfo(packageName string) value.Value {
	o := value.NewObject("Landroid/content/pm/PackageInfo;")
	o.MockType = "PackageInfo"
	if packageName == "" {
		packageName = r.Config.PackageName
	}
	o.SetField("packageName", value.NewString(packageName))

	sigVal := r.newSignature(nil)
	arr := value.NewArray("Landroid/content/pm/Signature;", 1)
	arr.Data[0] = sigVal
	o.SetField("signatures", value.ArrayVal(arr))
	o.SetField("signingInfo", value.Null())
	return value.ObjectVal(o)
}

// FactoryFor returns a pre-shaped instance for class, matching
// create_mock_for_class's dispatch over Context/Activity/Application/
// PackageManager/PackageInfo/Signature.
func (r *Registry) FactoryFor(class string) (value.Value, bool) {
	switch class {
	case "Landroid/content/Context;", "Landroid/app/Activity;", "Landroid/app/Application;":
		return r.newContext(), true
	case "Landroid/content/pm/PackageManager;":
		return r.newPackageManager(), true
	case "Landroid/content/pm/PackageInfo;":
		return r.newPackageInfo(""), true
	case "Landroid/content/pm/Signature;":
		return r.newSignature(nil), true
	default:
		return value.Value{}, false
	}
}
