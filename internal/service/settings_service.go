package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"planner/internal/model"
)

// SettingsStore persists preferences as string key/value pairs.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

const (
	KeyDateFormat           = "dateFormat"
	KeyOverdueThresholdDays = "overdueThresholdDays"
	KeyTrashRetentionDays   = "trashRetentionDays"
)

// SettingsService reads and writes the typed settings object.
type SettingsService struct {
	store SettingsStore
	log   zerolog.Logger
}

func NewSettingsService(store SettingsStore, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		store: store,
		log:   log.With().Str("component", "settings").Logger(),
	}
}

// Keys lists the setting names accepted by Set.
func Keys() []string {
	keys := []string{KeyDateFormat, KeyOverdueThresholdDays, KeyTrashRetentionDays}
	sort.Strings(keys)
	return keys
}

// Load returns the stored settings, using defaults for anything unset.
func (s *SettingsService) Load(ctx context.Context) (model.Settings, error) {
	settings := model.DefaultSettings()
	raw, err := s.store.All(ctx)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	for key, value := range raw {
		if err := apply(&settings, key, value); err != nil {
			s.log.Warn().Str("key", key).Str("value", value).Err(err).Msg("stored setting ignored")
		}
	}
	return settings, nil
}

// Save writes every field of settings.
func (s *SettingsService) Save(ctx context.Context, settings model.Settings) error {
	values := map[string]string{
		KeyDateFormat:           settings.DateFormat,
		KeyOverdueThresholdDays: strconv.Itoa(settings.OverdueThresholdDays),
		KeyTrashRetentionDays:   strconv.Itoa(settings.TrashRetentionDays),
	}
	for _, key := range Keys() {
		if err := s.store.Put(ctx, key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// Set validates and stores a single setting.
func (s *SettingsService) Set(ctx context.Context, key, value string) (model.Settings, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return settings, err
	}
	value = strings.TrimSpace(value)
	if err := apply(&settings, key, value); err != nil {
		return settings, err
	}
	if err := s.store.Put(ctx, key, value); err != nil {
		return settings, err
	}
	return settings, nil
}

func apply(settings *model.Settings, key, value string) error {
	switch key {
	case KeyDateFormat:
		if value == "" {
			return invalid("%s must not be empty", key)
		}
		settings.DateFormat = value
		return nil
	case KeyOverdueThresholdDays:
		return setNonNegative(&settings.OverdueThresholdDays, key, value)
	case KeyTrashRetentionDays:
		return setNonNegative(&settings.TrashRetentionDays, key, value)
	default:
		return invalid("unknown setting %q (known: %s)", key, strings.Join(Keys(), ", "))
	}
}

func setNonNegative(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return invalid("%s must be a non-negative integer, got %q", key, value)
	}
	*dst = n
	return nil
}

// GoLayout converts a YYYY/MM/DD style date format to a time layout.
func GoLayout(format string) string {
	if strings.TrimSpace(format) == "" {
		return "2006-01-02"
	}
	return strings.NewReplacer("YYYY", "2006", "YY", "06", "MM", "01", "DD", "02").Replace(format)
}
