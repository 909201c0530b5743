// Package mocks implements the four-registry mock dispatch layer spec.md
// §4.7 describes: static-method hooks, virtual-method hooks, static-field
// values, and instance factories for well-known Android framework classes,
// keyed by an exact "Class;->name" string rather than the original's
// substring match.
//
// Grounded on original_source/dalvik_vm/android_mocks.py (re-export shim)
// and the mocks/ subpackage it re-exports from — config.py, factories.py,
// context_hooks.py, dispatch.py, reflection_hooks.py, utility_hooks.py, all
// read in full — plus spec.md §4.7's own bundled-minimum list, which
// has no original_source equivalent (Base64 in particular: grep confirms
// no Base64 mock exists anywhere in original_source).
package mocks

// Config mirrors AndroidMockConfig: values users may want to tune to match
// a specific target app's environment.
type Config struct {
	PackageName            string
	SignatureBytes         []byte
	SDKInt                 int32
	GetSignatures          int32
	GetSigningCertificates int32
}

// DefaultConfig matches mock_config's literal defaults.
func DefaultConfig() Config {
	sig := make([]byte, 256)
	for i := range sig {
		if i%2 == 0 {
			sig[i] = 0xAB
		} else {
			sig[i] = 0xCD
		}
	}
	return Config{
		PackageName:            "com.fatalsec.app",
		SignatureBytes:         sig,
		SDKInt:                 30,
		GetSignatures:          0x00000040,
		GetSigningCertificates: 0x08000000,
	}
}
