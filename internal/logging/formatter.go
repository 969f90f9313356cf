package logging

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// formatText renders an event as one human-readable line:
// "<ts> [<LEVEL>] <component>: <message> key=val ...".
func formatText(event Event) string {
	var sb strings.Builder
	sb.Grow(128)

	sb.WriteString(event.Timestamp.Format(timestampFormat))
	sb.WriteByte(' ')
	sb.WriteByte('[')
	sb.WriteString(event.Level.String())
	sb.WriteString("] ")

	if event.Component != "" {
		sb.WriteString(event.Component)
		sb.WriteString(": ")
	}
	sb.WriteString(event.Message)

	if len(event.Meta) > 0 {
		sb.WriteByte(' ')
		formatMeta(&sb, event.Meta)
	}
	return sb.String()
}

func formatMeta(sb *strings.Builder, meta map[string]any) {
	keys := slices.Collect(maps.Keys(meta))
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		formatValue(sb, meta[k])
	}
}

func formatValue(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		sb.WriteString(val)
	case int:
		sb.WriteString(strconv.Itoa(val))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case uint32:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(val, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		sb.WriteString(strconv.FormatBool(val))
	default:
		fmt.Fprintf(sb, "%v", val)
	}
}
