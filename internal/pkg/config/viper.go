package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envReplacer maps a dotted key such as mail.resend.api_key to MAIL_RESEND_API_KEY.
var envReplacer = strings.NewReplacer(".", "_")

// Viper is a Config implementation backed by github.com/spf13/viper.
type Viper struct {
	v *viper.Viper
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config file type is inferred by Viper from the filename extension. Every
// key can be overridden from the environment, which is where secrets such as
// the mail provider API key are expected to come from.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()
	bindEnv(v)

	filename := path.Base(pathFile)
	configName := filename[:len(filename)-len(path.Ext(filename))]

	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(configName)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "err", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)
	bindEnv(v)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
}

// IsSet reports whether key has a value in the file or the environment.
func (vc *Viper) IsSet(key string) bool {
	return vc.v.IsSet(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetArray returns the value for key. Lists are returned as-is, scalars are
// split by commas. Empty elements are dropped.
func (vc *Viper) GetArray(key string) []string {
	raw := vc.v.GetString(key)
	if strings.TrimSpace(raw) == "" {
		return vc.v.GetStringSlice(key)
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
