// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package confmap // import "github.com/otel-log-samples/logpipeline/confmap"

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Millis converts a number of milliseconds into a duration string.
func Millis(raw string) (any, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, err
	}
	if ms < 0 {
		return nil, fmt.Errorf("negative duration %d", ms)
	}
	return (time.Duration(ms) * time.Millisecond).String(), nil
}

// KeyValueList converts "k1=v1,k2=v2" into a map. Blank entries are skipped
// and keys and values are trimmed. Values are percent-decoded.
func KeyValueList(raw string) (any, error) {
	out := make(map[string]any)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not a key=value pair", pair)
		}
		v, err := url.PathUnescape(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", k, err)
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Lower trims and lower-cases the value. Empty values are ignored.
func Lower(raw string) (any, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return nil, nil
	}
	return v, nil
}

// Bool parses a boolean value.
func Bool(raw string) (any, error) {
	return strconv.ParseBool(strings.TrimSpace(raw))
}
