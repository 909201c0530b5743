// Package config is a viper-backed binding of the values spec.md §6
// recognizes ("Configuration values recognized": package_name,
// signature_bytes, sdk_int) plus the instruction-count cap and wall-clock
// timeout spec.md §5 calls "a recommended addition, not prescribed" — this
// module prescribes them as config-driven cobra flags rather than leaving
// them unbounded.
//
// Grounded on blacktop-ipsw's cmd/ipsw/cmd/root.go initConfig: same
// viper.AddConfigPath/SetConfigType/SetConfigName/AutomaticEnv shape,
// rebound to this module's own env prefix and option set.
package config

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds one emulation run's tunables. Every field has a spec.md- or
// SPEC_FULL.md-cited default so a bare `dalivm run` works against an
// unconfigured target before the user narrows anything.
type Config struct {
	PackageName     string
	SignatureBytes  []byte
	SDKInt          int32
	MaxInstructions int
	Timeout         time.Duration
}

// Default matches mocks.DefaultConfig's literal values plus this module's
// own instruction-cap/timeout defaults (spec.md §5's budget is left
// unspecified; 2,000,000 steps / 30s is this module's own choice, generous
// enough for a single string-decryption routine without being unbounded).
func Default() Config {
	sig := make([]byte, 256)
	for i := range sig {
		if i%2 == 0 {
			sig[i] = 0xAB
		} else {
			sig[i] = 0xCD
		}
	}
	return Config{
		PackageName:     "com.fatalsec.app",
		SignatureBytes:  sig,
		SDKInt:          30,
		MaxInstructions: 2_000_000,
		Timeout:         30 * time.Second,
	}
}

// FromViper reads the three spec.md §6 values plus the instruction/timeout
// pair off v, falling back to Default()'s value whenever the bound flag is
// left at its zero value (viper itself already merges flag/env/file
// precedence before this is called).
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	if pkg := v.GetString("package_name"); pkg != "" {
		cfg.PackageName = pkg
	}
	if sig := v.GetString("signature_bytes"); sig != "" {
		b, err := hex.DecodeString(strings.TrimPrefix(sig, "0x"))
		if err != nil {
			return Config{}, errors.Wrap(err, "config: signature_bytes is not valid hex")
		}
		cfg.SignatureBytes = b
	}
	if n := v.GetInt("sdk_int"); n != 0 {
		cfg.SDKInt = int32(n)
	}
	if n := v.GetInt("max-instructions"); n != 0 {
		cfg.MaxInstructions = n
	}
	if d := v.GetDuration("timeout"); d != 0 {
		cfg.Timeout = d
	}
	return cfg, nil
}
