package cfg

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultDebounce = 200 * time.Millisecond

// Watch re-decodes key whenever the source file changes and hands the new
// value to fn. Changes that leave key's settings untouched are skipped and
// bursts of writes are debounced. Values that fail to decode or validate
// are logged and dropped.
func Watch[T any](src Source, key string, fn func(T), logger *zap.Logger, opts ...Option) error {
	if fn == nil {
		return fmt.Errorf("watch %q: nil callback", key)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	state := parse(src, opts)
	v, err := load(state)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		last    = snapshot(v, key)
		timer   *time.Timer
		pending T
	)
	deliver := func() {
		mu.Lock()
		out := pending
		mu.Unlock()
		logger.Info("config changed", zap.String("key", key))
		fn(out)
	}
	// viper is not safe for concurrent use, so the settings are read and
	// decoded here on its watcher goroutine. Only delivery is debounced.
	v.OnConfigChange(func(_ fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()
		next := snapshot(v, key)
		if next == last {
			return
		}
		last = next
		var out T
		if err := decode(v, key, &out); err != nil {
			logger.Warn("config reload failed", zap.String("key", key), zap.Error(err))
			return
		}
		if state.validate {
			if err := validateStruct(out); err != nil {
				logger.Warn("config reload rejected", zap.String("key", key), zap.Error(err))
				return
			}
		}
		pending = out
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(defaultDebounce, deliver)
	})
	v.WatchConfig()
	return nil
}

func snapshot(v *viper.Viper, key string) string {
	if key == "" {
		return fmt.Sprintf("%v", v.AllSettings())
	}
	return fmt.Sprintf("%s=%v", key, v.Get(key))
}
