/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user settings of the journal editor: a YAML file
// in the user config dir, an optional .env file and TSJ_* environment
// overrides, in that order. The telemetry token lives in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn       bool `yaml:"telemetry_opt_in"`
	DesktopNotifications bool `yaml:"desktop_notifications"`
}

type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type StorageConfig struct {
	Type string `yaml:"type"` // "file" | "sqlite" | "memory"
	Dir  string `yaml:"dir"`
}

type ExportConfig struct {
	Dir string `yaml:"dir"`
}

type PreviewConfig struct {
	Frames       int     `yaml:"frames"`
	FPS          int     `yaml:"fps"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	Stagger      int     `yaml:"stagger"`
	DampingRatio float64 `yaml:"damping_ratio"`
}

type IntakeConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type TelemetryConfig struct {
	EventsURL string `yaml:"events_url"`
	CrashURL  string `yaml:"crash_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type AppConfig struct {
	ConfigVersion int             `yaml:"config_version"`
	General       GeneralConfig   `yaml:"general"`
	Canvas        CanvasConfig    `yaml:"canvas"`
	Storage       StorageConfig   `yaml:"storage"`
	Export        ExportConfig    `yaml:"export"`
	Preview       PreviewConfig   `yaml:"preview"`
	Intake        IntakeConfig    `yaml:"intake"`
	Logging       LoggingConfig   `yaml:"logging"`
	Telemetry     TelemetryConfig `yaml:"telemetry"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, DesktopNotifications: false},
		Canvas:        CanvasConfig{Width: 1000, Height: 600},
		Storage:       StorageConfig{Type: "file", Dir: defaultDataDir()},
		Export:        ExportConfig{Dir: "."},
		Preview:       PreviewConfig{Frames: 120, FPS: 30, Width: 800, Height: 450, Stagger: 5, DampingRatio: 1},
		Intake:        IntakeConfig{MaxBytes: 5 * 1024 * 1024},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Telemetry:     TelemetryConfig{TimeoutMs: 1500},
	}
}

// Env var names used as overrides.
const (
	EnvTelemetryOptIn  = "TSJ_TELEMETRY_OPT_IN"
	EnvDesktopNotify   = "TSJ_DESKTOP_NOTIFY"
	EnvCanvasWidth     = "TSJ_CANVAS_WIDTH"
	EnvCanvasHeight    = "TSJ_CANVAS_HEIGHT"
	EnvStorageType     = "TSJ_STORAGE_TYPE"
	EnvDataDir         = "TSJ_DATA_DIR"
	EnvExportDir       = "TSJ_EXPORT_DIR"
	EnvPreviewFrames   = "TSJ_PREVIEW_FRAMES"
	EnvPreviewFPS      = "TSJ_PREVIEW_FPS"
	EnvPreviewDamping  = "TSJ_PREVIEW_DAMPING"
	EnvIntakeMaxBytes  = "TSJ_INTAKE_MAX_BYTES"
	EnvTelemetryURL    = "TSJ_TELEMETRY_URL"
	EnvCrashUploadURL  = "TSJ_CRASH_UPLOAD_URL"
	EnvTelemetryTimout = "TSJ_TELEMETRY_TIMEOUT_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "TSJ_LOG_LEVEL"
	EnvLogFormat = "TSJ_LOG_FORMAT"
	EnvLogSource = "TSJ_LOG_SOURCE"
	EnvLogFile   = "TSJ_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "TravelStory"
	keyringToken   = "telemetry_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// SetTokenStore replaces the keyring backend and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyringGet(service, key) }
func (k *osKeyring) Set(service, key, value string) error   { return keyringSet(service, key, value) }
func (k *osKeyring) Delete(service, key string) error       { return keyringDelete(service, key) }

// The following vars are defined in keyring_stub.go or keyring_real.go depending on build tags.
var (
	keyringGet    func(service, key string) (string, error)
	keyringSet    func(service, key, value string) error
	keyringDelete func(service, key string) error
)

// Token returns the telemetry bearer token from the keyring, or "".
func Token() string {
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return tok
}

// configDir returns the per-user directory holding config.yaml.
func configDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "TravelStory")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "TravelStory")
	default: // linux and others
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "travelstory")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "travelstory")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// defaultDataDir is where the journal slot lives unless configured otherwise.
func defaultDataDir() string {
	switch runtime.GOOS {
	case "windows", "darwin":
		if dir, err := configDir(); err == nil {
			return filepath.Join(dir, "data")
		}
	default:
		if x := os.Getenv("XDG_DATA_HOME"); x != "" {
			return filepath.Join(x, "travelstory")
		}
		if h := os.Getenv("HOME"); h != "" {
			return filepath.Join(h, ".local", "share", "travelstory")
		}
	}
	return filepath.Join(os.TempDir(), "travelstory")
}

// Load reads user config file (if present), applies defaults, loads .env
// from the working directory and merges environment overrides.
// The telemetry token is read from the keyring and returned separately.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFrom(path, ".env")
}

// LoadFrom is Load with explicit file locations. A missing file is not an
// error; a malformed config file is.
func LoadFrom(path, dotenv string) (AppConfig, string, error) {
	if dotenv != "" {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Defaults(), "", fmt.Errorf("load %s: %w", dotenv, err)
		}
	}
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	return cfg, Token(), nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg, token)
}

// SaveTo is Save with an explicit file location.
func SaveTo(path string, cfg AppConfig, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.DesktopNotifications = src.General.DesktopNotifications
	if src.Canvas.Width > 0 {
		dst.Canvas.Width = src.Canvas.Width
	}
	if src.Canvas.Height > 0 {
		dst.Canvas.Height = src.Canvas.Height
	}
	if v := strings.TrimSpace(src.Storage.Type); v != "" {
		dst.Storage.Type = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Storage.Dir); v != "" {
		dst.Storage.Dir = v
	}
	if v := strings.TrimSpace(src.Export.Dir); v != "" {
		dst.Export.Dir = v
	}
	// preview
	if src.Preview.Frames > 0 {
		dst.Preview.Frames = src.Preview.Frames
	}
	if src.Preview.FPS > 0 {
		dst.Preview.FPS = src.Preview.FPS
	}
	if src.Preview.Width > 0 {
		dst.Preview.Width = src.Preview.Width
	}
	if src.Preview.Height > 0 {
		dst.Preview.Height = src.Preview.Height
	}
	if src.Preview.Stagger > 0 {
		dst.Preview.Stagger = src.Preview.Stagger
	}
	if src.Preview.DampingRatio > 0 {
		dst.Preview.DampingRatio = src.Preview.DampingRatio
	}
	if src.Intake.MaxBytes > 0 {
		dst.Intake.MaxBytes = src.Intake.MaxBytes
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// telemetry
	if v := strings.TrimSpace(src.Telemetry.EventsURL); v != "" {
		dst.Telemetry.EventsURL = v
	}
	if v := strings.TrimSpace(src.Telemetry.CrashURL); v != "" {
		dst.Telemetry.CrashURL = v
	}
	if src.Telemetry.TimeoutMs > 0 {
		dst.Telemetry.TimeoutMs = src.Telemetry.TimeoutMs
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func envInt(key string, dst *int) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDesktopNotify)); v != "" {
		cfg.General.DesktopNotifications = parseBool(v)
	}
	envInt(EnvCanvasWidth, &cfg.Canvas.Width)
	envInt(EnvCanvasHeight, &cfg.Canvas.Height)
	if v := strings.TrimSpace(os.Getenv(EnvStorageType)); v != "" {
		cfg.Storage.Type = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDataDir)); v != "" {
		cfg.Storage.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		cfg.Export.Dir = v
	}
	envInt(EnvPreviewFrames, &cfg.Preview.Frames)
	envInt(EnvPreviewFPS, &cfg.Preview.FPS)
	if v := strings.TrimSpace(os.Getenv(EnvPreviewDamping)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Preview.DampingRatio = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIntakeMaxBytes)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Intake.MaxBytes = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	// telemetry overrides
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.Telemetry.EventsURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCrashUploadURL)); v != "" {
		cfg.Telemetry.CrashURL = v
	}
	envInt(EnvTelemetryTimout, &cfg.Telemetry.TimeoutMs)
}

// DataDir returns the storage dir, resolving a leading ~ against HOME.
func (s StorageConfig) DataDir() string { return expandHome(s.Dir) }

// OutDir returns the export dir, resolving a leading ~ against HOME.
func (e ExportConfig) OutDir() string { return expandHome(e.Dir) }

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if h, err := os.UserHomeDir(); err == nil {
			return filepath.Join(h, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate rejects settings the editor cannot run with.
func (c AppConfig) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size %dx%d must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	switch c.Storage.Type {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.type %q must be file, sqlite or memory", c.Storage.Type)
	}
	if c.Preview.Frames <= 0 || c.Preview.FPS <= 0 {
		return fmt.Errorf("preview frames/fps must be positive")
	}
	if c.Intake.MaxBytes <= 0 {
		return fmt.Errorf("intake.max_bytes must be positive")
	}
	return nil
}
