// Package applog is a thin wrapper over apex/log, the structured logger
// used pervasively in _examples/blacktop-ipsw. internal/interp uses it to
// report recoverable gaps (spec.md §7 item 4: an unmocked API, an
// unresolved static field, an unresolved argument) as warnings rather than
// aborting emulation.
package applog

import "github.com/apex/log"

func Debugf(format string, args ...any) { log.Debugf(format, args...) }
func Infof(format string, args ...any)  { log.Infof(format, args...) }
func Warnf(format string, args ...any)  { log.Warnf(format, args...) }
func Errorf(format string, args ...any) { log.Errorf(format, args...) }

// Gap logs a recoverable-gap diagnostic (spec.md §7 item 4), attaching the
// owning method and pc so a de-obfuscation run's log reads as a trail of
// "what the mock surface couldn't cover" rather than bare warnings.
func Gap(method string, pc uint32, reason string) {
	log.WithField("method", method).WithField("pc", pc).Warn(reason)
}
