// Package config provides centralized configuration management for the
// renderer. This is the SINGLE SOURCE OF TRUTH for render settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// RENDER CONFIGURATION
// =============================================================================

// OutputFormat names the container/codec an encode targets.
type OutputFormat string

const (
	OutputWAV    OutputFormat = "wav"
	OutputFLAC   OutputFormat = "flac"
	OutputVorbis OutputFormat = "ogg"
)

// RenderConfig holds all settings that steer a single offline render:
// effector parameters, mixer policy, and output encoding.
type RenderConfig struct {
	Quality               float64      // Ogg/Vorbis VBR quality, -0.1..1.0
	Pitch                 float64      // pitch multiplier, 1.0 = unchanged
	Tempo                 float64      // tempo multiplier, 1.0 = unchanged
	Volume                float64      // master volume, 0.0..1.0+
	StopDuplicatedSound   bool         // retrigger policy for repeated key sounds
	Output                OutputFormat // output container/codec
	MaxAudible            int          // concurrent audible channel cap
}

// DefaultRender returns the default render configuration.
// This is the SINGLE SOURCE OF TRUTH for render defaults.
func DefaultRender() RenderConfig {
	return RenderConfig{
		Quality:             0.6,
		Pitch:               1.0,
		Tempo:               1.0,
		Volume:              0.8,
		StopDuplicatedSound: true,
		Output:              OutputWAV,
		MaxAudible:          256,
	}
}

// RenderFromEnv returns render configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func RenderFromEnv() RenderConfig {
	cfg := DefaultRender()

	if q := getEnvFloat("RENDER_QUALITY", -2); q >= -1 {
		cfg.Quality = q
	}
	if p := getEnvFloat("RENDER_PITCH", 0); p > 0 {
		cfg.Pitch = p
	}
	if t := getEnvFloat("RENDER_TEMPO", 0); t > 0 {
		cfg.Tempo = t
	}
	if v := getEnvFloat("RENDER_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("RENDER_STOP_DUPLICATED_SOUND") == "false" {
		cfg.StopDuplicatedSound = false
	}
	if out := getEnvFormat("RENDER_OUTPUT", ""); out != "" {
		cfg.Output = out
	}
	if m := getEnvInt("RENDER_MAX_AUDIBLE", 0); m > 0 {
		cfg.MaxAudible = m
	}

	return cfg
}

// PCMConfig holds the interchange PCM format the mixer renders at.
type PCMConfig struct {
	SampleRate int // Hz
	Channels   int // 1=mono, 2=stereo
	Bits       int // bits per sample, integer signed
}

// DefaultPCM returns the default mixer PCM format.
func DefaultPCM() PCMConfig {
	return PCMConfig{
		SampleRate: 44100,
		Channels:   2,
		Bits:       16,
	}
}

// PCMFromEnv returns PCM configuration with environment variable overrides.
func PCMFromEnv() PCMConfig {
	cfg := DefaultPCM()

	if r := getEnvInt("RENDER_SAMPLE_RATE", 0); r > 0 {
		cfg.SampleRate = r
	}
	if c := getEnvInt("RENDER_CHANNELS", 0); c > 0 {
		cfg.Channels = c
	}
	if b := getEnvInt("RENDER_BITS", 0); b > 0 {
		cfg.Bits = b
	}

	return cfg
}

// =============================================================================
// SCHEDULER / LOAD-POOL CONFIGURATION
// =============================================================================

// PoolConfig controls the bounded worker pool that preloads sound-bank
// entries ahead of the mix loop.
type PoolConfig struct {
	Workers int // goroutines in the load pool
}

// DefaultPool returns the default pool configuration.
func DefaultPool() PoolConfig {
	return PoolConfig{
		Workers: 8,
	}
}

// PoolFromEnv returns pool configuration with environment variable overrides.
func PoolFromEnv() PoolConfig {
	cfg := DefaultPool()

	if w := getEnvInt("RENDER_POOL_WORKERS", 0); w > 0 {
		cfg.Workers = w
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete renderer configuration.
type AppConfig struct {
	Render RenderConfig
	PCM    PCMConfig
	Pool   PoolConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Render: RenderFromEnv(),
		PCM:    PCMFromEnv(),
		Pool:   PoolFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvFormat(key, defaultVal string) OutputFormat {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "wav", "flac", "ogg":
		return OutputFormat(v)
	}
	return OutputFormat(defaultVal)
}
