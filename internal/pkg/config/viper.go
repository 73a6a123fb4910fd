package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: AUTHGATE_AUTHFLOW_STORAGE_SEAL_KEY
// overrides authflow.storage.seal_key.
const EnvPrefix = "AUTHGATE"

// Viper implements Config on top of spf13/viper.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads the file at pathFile and reloads it whenever it changes on
// disk. The format follows the file extension.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(filepath.Clean(pathFile))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", pathFile, err)
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		slog.Info("config reloaded", "path", ev.Name)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes builds a Config from an in-memory document, typically a
// YAML literal in a test.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	configType = strings.TrimSpace(configType)
	if configType == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("parse %s config: %w", configType, err)
	}

	return &Viper{v: v}, nil
}

func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetUint(key string) uint       { return vc.v.GetUint(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }

func (vc *Viper) span(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

func (vc *Viper) GetMillisecond(key string) time.Duration { return vc.span(key, time.Millisecond) }
func (vc *Viper) GetSecond(key string) time.Duration      { return vc.span(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration      { return vc.span(key, time.Minute) }
func (vc *Viper) GetHour(key string) time.Duration        { return vc.span(key, time.Hour) }

func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch val := vc.v.Get(key).(type) {
	case []any:
		raw = lo.Map(val, func(item any, _ int) string { return fmt.Sprint(item) })
	case []string:
		raw = val
	default:
		raw = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(raw, func(item string, _ int) string { return strings.TrimSpace(item) }))
}

func (vc *Viper) GetMap(key string) map[string]string {
	if val, ok := vc.v.Get(key).(map[string]any); ok {
		return lo.MapValues(val, func(item any, _ string) string { return fmt.Sprint(item) })
	}

	m := make(map[string]string)
	for _, pair := range strings.Split(vc.v.GetString(key), ",") {
		k, val, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if ok && k != "" {
			m[k] = val
		}
	}

	return m
}

// Close is a no-op. The file watcher lives for the whole process.
func (vc *Viper) Close() error { return nil }
