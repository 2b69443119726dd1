// Package logging adapts structured loggers to the client's field-map
// logger interface.
package logging

import (
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/rs/zerolog"
)

// Supported log formats.
const (
	FormatZerolog = "zerolog"
	FormatHCLog   = "hclog"
)

// Zerolog writes through a zerolog.Logger.
type Zerolog struct {
	logger zerolog.Logger
}

// NewZerolog wraps logger.
func NewZerolog(logger zerolog.Logger) *Zerolog {
	return &Zerolog{logger: logger}
}

func (z *Zerolog) Debug(msg string, fields map[string]interface{}) {
	z.logger.Debug().Fields(fields).Msg(msg)
}

func (z *Zerolog) Info(msg string, fields map[string]interface{}) {
	z.logger.Info().Fields(fields).Msg(msg)
}

func (z *Zerolog) Warn(msg string, fields map[string]interface{}) {
	z.logger.Warn().Fields(fields).Msg(msg)
}

func (z *Zerolog) Error(msg string, fields map[string]interface{}) {
	z.logger.Error().Fields(fields).Msg(msg)
}

// HCLog writes through an hclog.Logger.
type HCLog struct {
	logger hclog.Logger
}

// NewHCLog wraps logger.
func NewHCLog(logger hclog.Logger) *HCLog {
	return &HCLog{logger: logger}
}

func (h *HCLog) Debug(msg string, fields map[string]interface{}) {
	h.logger.Debug(msg, pairs(fields)...)
}

func (h *HCLog) Info(msg string, fields map[string]interface{}) {
	h.logger.Info(msg, pairs(fields)...)
}

func (h *HCLog) Warn(msg string, fields map[string]interface{}) {
	h.logger.Warn(msg, pairs(fields)...)
}

func (h *HCLog) Error(msg string, fields map[string]interface{}) {
	h.logger.Error(msg, pairs(fields)...)
}

// pairs flattens fields into key/value arguments in key order.
func pairs(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	args := make([]interface{}, 0, 2*len(keys))
	for _, key := range keys {
		args = append(args, key, fields[key])
	}

	return args
}

// Config selects and configures a logger.
type Config struct {
	Format string
	Level  string
	Output io.Writer
	Name   string
}

// Logger is the field-map logger implemented by the adapters.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// New builds a logger for config. Unknown formats fall back to zerolog.
// The hclog logger is also returned so it can serve as a retry logger; it
// is nil for zerolog.
func New(config Config) (Logger, hclog.Logger) {
	if strings.EqualFold(config.Format, FormatHCLog) {
		logger := hclog.New(&hclog.LoggerOptions{
			Name:   config.Name,
			Level:  hclog.LevelFromString(config.Level),
			Output: config.Output,
		})

		return NewHCLog(logger), logger
	}

	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(config.Output).Level(level).With().Timestamp().Logger()
	if config.Name != "" {
		logger = logger.With().Str("component", config.Name).Logger()
	}

	return NewZerolog(logger), nil
}
