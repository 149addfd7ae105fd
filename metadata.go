// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package refresher

import (
	"encoding/json"
	"fmt"
	"iter"
	"maps"
	"slices"

	"go.uber.org/zap/zapcore"
)

// Metadata labels an Updater with fixed facts about what it refreshes, such as
// the remote URL or the region it serves. It is set once through WithMetadata
// and then reported unchanged in every UpdaterState, lifecycle event, and
// status document.
//
// Metadata is immutable. The zero value carries no labels.
type Metadata struct {
	labels map[string]any
}

var _ zapcore.ObjectMarshaler = Metadata{}

// Len is the number of labels.
func (m Metadata) Len() int {
	return len(m.labels)
}

// Get looks up a single label.
func (m Metadata) Get(name string) (value any, exists bool) {
	value, exists = m.labels[name]
	return
}

// All yields every label sorted by name, so that status documents and logs
// render an Updater's labels in a stable order.
func (m Metadata) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, name := range slices.Sorted(maps.Keys(m.labels)) {
			if !yield(name, m.labels[name]) {
				return
			}
		}
	}
}

func (m Metadata) String() string {
	return fmt.Sprintf("%s", m.labels)
}

// MarshalJSON renders the labels as a JSON object. An empty Metadata renders
// as {} rather than null.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.labels == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(m.labels)
}

// MarshalLogObject lets Metadata be logged with zap.Object.
func (m Metadata) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for name, value := range m.All() {
		if err := enc.AddReflected(name, value); err != nil {
			return err
		}
	}

	return nil
}

// Map labels an Updater from a map, typically one decoded from configuration.
// The map is copied, so later changes to src do not leak into the Metadata.
func Map[T any](src map[string]T) Metadata {
	labels := make(map[string]any, len(src))
	for name, value := range src {
		labels[name] = value
	}

	return Metadata{labels: labels}
}

// labelName turns a label name given to Values into a string.
func labelName(v any) string {
	switch n := v.(type) {
	case string:
		return n

	case fmt.Stringer:
		return n.String()

	default:
		return fmt.Sprint(v)
	}
}

// Values labels an Updater from alternating names and values, in the same
// style as zap's sugared key/value pairs. A trailing name without a value is
// labeled with nil. Names that are not strings are rendered with fmt.
func Values(kv ...any) Metadata {
	labels := make(map[string]any, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		labels[labelName(kv[i])] = value
	}

	return Metadata{labels: labels}
}
