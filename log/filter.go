package log

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// FilterFieldsCore drops fields before they reach core. A key ending in
// ".*" drops every field under that prefix, so "trace.*" removes trace.id
// and trace.sampled alike.
func FilterFieldsCore(core zapcore.Core, dropKeys ...string) zapcore.Core {
	rules := newDropRules(dropKeys)
	if rules.empty() {
		return core
	}
	return filterFieldsCore{Core: core, rules: rules}
}

type filterFieldsCore struct {
	zapcore.Core
	rules dropRules
}

func (c filterFieldsCore) With(fields []zapcore.Field) zapcore.Core {
	return filterFieldsCore{
		Core:  c.Core.With(c.rules.filter(fields)),
		rules: c.rules,
	}
}

func (c filterFieldsCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c filterFieldsCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.rules.filter(fields))
}

type dropRules struct {
	keys     map[string]struct{}
	prefixes []string
}

func newDropRules(keys []string) dropRules {
	var rules dropRules
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			rules.prefixes = append(rules.prefixes, prefix)
			continue
		}
		if rules.keys == nil {
			rules.keys = make(map[string]struct{})
		}
		rules.keys[key] = struct{}{}
	}
	return rules
}

func (r dropRules) empty() bool {
	return len(r.keys) == 0 && len(r.prefixes) == 0
}

func (r dropRules) drops(key string) bool {
	if _, ok := r.keys[key]; ok {
		return true
	}
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (r dropRules) filter(fields []zapcore.Field) []zapcore.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, 0, len(fields))
	for _, field := range fields {
		if r.drops(field.Key) {
			continue
		}
		out = append(out, field)
	}
	return out
}
