// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package record // import "github.com/otel-log-samples/logpipeline/record"

import (
	"fmt"
	"strings"
)

// Severity is the OpenTelemetry severity number of a log record.
type Severity int32

const (
	SeverityUndefined Severity = iota
	SeverityTrace
	SeverityTrace2
	SeverityTrace3
	SeverityTrace4
	SeverityDebug
	SeverityDebug2
	SeverityDebug3
	SeverityDebug4
	SeverityInfo
	SeverityInfo2
	SeverityInfo3
	SeverityInfo4
	SeverityWarn
	SeverityWarn2
	SeverityWarn3
	SeverityWarn4
	SeverityError
	SeverityError2
	SeverityError3
	SeverityError4
	SeverityFatal
	SeverityFatal2
	SeverityFatal3
	SeverityFatal4
)

var severityNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// Valid reports whether s is one of the defined severity numbers.
func (s Severity) Valid() bool {
	return s >= SeverityUndefined && s <= SeverityFatal4
}

// String returns the short name of s, e.g. "INFO" or "ERROR3".
func (s Severity) String() string {
	if s == SeverityUndefined {
		return "UNDEFINED"
	}
	if !s.Valid() {
		return fmt.Sprintf("Severity(%d)", int32(s))
	}
	base := severityNames[(s-1)/4]
	if n := (s-1)%4 + 1; n > 1 {
		return fmt.Sprintf("%s%d", base, n)
	}
	return base
}

// ParseSeverity parses a level name such as "info", "WARN" or "error3".
// "warning" and "critical" are accepted as aliases of WARN and FATAL.
func ParseSeverity(text string) (Severity, error) {
	name := strings.ToUpper(strings.TrimSpace(text))
	switch name {
	case "WARNING":
		name = "WARN"
	case "CRITICAL":
		name = "FATAL"
	}
	for i, base := range severityNames {
		if !strings.HasPrefix(name, base) {
			continue
		}
		rest := name[len(base):]
		n := 1
		if rest != "" {
			if len(rest) != 1 || rest[0] < '1' || rest[0] > '4' {
				break
			}
			n = int(rest[0] - '0')
		}
		return Severity(i*4 + n), nil
	}
	return SeverityUndefined, fmt.Errorf("unknown severity %q", text)
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseSeverity.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
