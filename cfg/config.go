package cfg

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// DefaultFile is read when no explicit source is configured.
const DefaultFile = "config.toml"

// Source names the config file shared by every module of an app.
type Source struct {
	File string
}

type Option func(*configState)

type configState struct {
	sourceFile   string
	configType   string
	envPrefix    string
	keyReplacer  *strings.Replacer
	automaticEnv bool
	optional     bool
	validate     bool
	defaults     map[string]any
	hooks        []func(*viper.Viper) error
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func WithSourceFile(path string) Option {
	return func(s *configState) { s.sourceFile = path }
}

func WithType(kind string) Option {
	return func(s *configState) { s.configType = kind }
}

func WithRequired() Option {
	return func(s *configState) { s.optional = false }
}

func WithEnvPrefix(prefix string) Option {
	return func(s *configState) { s.envPrefix = prefix }
}

func WithNoEnv() Option {
	return func(s *configState) {
		s.automaticEnv = false
		s.envPrefix = ""
	}
}

func WithDefault(key string, value any) Option {
	return func(s *configState) {
		if s.defaults == nil {
			s.defaults = map[string]any{}
		}
		s.defaults[key] = value
	}
}

// WithViper runs fn against the viper instance after defaults are set and
// before the file is read.
func WithViper(fn func(*viper.Viper) error) Option {
	return func(s *configState) {
		if fn != nil {
			s.hooks = append(s.hooks, fn)
		}
	}
}

func WithoutValidation() Option {
	return func(s *configState) { s.validate = false }
}

func parse(src Source, opts []Option) configState {
	s := configState{
		sourceFile:   src.File,
		automaticEnv: true,
		keyReplacer:  strings.NewReplacer(".", "_", "-", "_"),
		optional:     true,
		validate:     true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.sourceFile == "" {
		s.sourceFile = DefaultFile
	}
	return s
}

// Load decodes key from src into a T. The file is optional unless
// WithRequired is given, env variables override file values, and struct
// targets are validated through their `validate` tags.
func Load[T any](src Source, key string, opts ...Option) (T, error) {
	var out T
	state := parse(src, opts)
	v, err := load(state)
	if err != nil {
		return out, err
	}
	if err := decode(v, key, &out); err != nil {
		return out, fmt.Errorf("decode %q: %w", key, err)
	}
	if state.validate {
		if err := validateStruct(out); err != nil {
			return out, fmt.Errorf("validate %q: %w", key, err)
		}
	}
	return out, nil
}

// Provide registers Load[T] as an fx constructor. Source is optional in the
// graph.
func Provide[T any](key string, opts ...Option) fx.Option {
	return fx.Provide(fx.Annotate(func(src Source) (T, error) {
		return Load[T](src, key, opts...)
	}, fx.ParamTags(`optional:"true"`)))
}

func load(cfg configState) (*viper.Viper, error) {
	v := viper.New()
	if cfg.envPrefix != "" {
		v.SetEnvPrefix(cfg.envPrefix)
	}
	if cfg.keyReplacer != nil {
		v.SetEnvKeyReplacer(cfg.keyReplacer)
	}
	if cfg.automaticEnv {
		v.AutomaticEnv()
	}
	path := cfg.sourceFile
	v.SetConfigFile(path)
	if cfg.configType != "" {
		v.SetConfigType(cfg.configType)
	}
	for k, val := range cfg.defaults {
		v.SetDefault(k, val)
	}
	for _, hook := range cfg.hooks {
		if err := hook(v); err != nil {
			return nil, err
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfg.optional && (errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)) {
			return v, nil
		}
		if cleaned, ok := sanitize(path); ok {
			if cfg.configType == "" {
				if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
					v.SetConfigType(ext)
				}
			}
			if rerr := v.ReadConfig(bytes.NewReader(cleaned)); rerr == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

// sanitize strips byte order marks and zero width spaces that editors leave
// behind and that the TOML parser rejects.
func sanitize(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	changed := false
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if i+2 < len(data) && data[i] == 0xEF && data[i+1] == 0xBB && data[i+2] == 0xBF {
			i += 2
			changed = true
			continue
		}
		if i+2 < len(data) && data[i] == 0xE2 && data[i+1] == 0x80 && data[i+2] == 0x8B {
			i += 2
			changed = true
			continue
		}
		out = append(out, data[i])
	}
	if changed {
		return out, true
	}
	return nil, false
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// decode reads key from the merged settings so env overrides of nested
// keys are honoured for struct targets.
func decode(v *viper.Viper, key string, out any) error {
	t := reflect.TypeOf(out)
	if t == nil || t.Kind() != reflect.Pointer {
		return fmt.Errorf("config target must be a pointer")
	}
	if t.Elem().Kind() != reflect.Struct {
		if key == "" {
			return v.Unmarshal(out)
		}
		return v.UnmarshalKey(key, out)
	}
	settings := v.AllSettings()
	var input any = settings
	if key != "" {
		input = lookup(settings, key)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func lookup(settings map[string]any, key string) any {
	var current any = settings
	for _, part := range strings.Split(strings.ToLower(key), ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

func validateStruct(out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(rv.Interface())
}
