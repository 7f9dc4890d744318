// Package killswitch reads and flips the global flag that takes the API
// offline for everyone except platform admins.
package killswitch

import (
	"log/slog"
	"strconv"

	"github.com/cradoe/splitsy/internal/cache"
	"github.com/cradoe/splitsy/internal/repository"
)

type Observer interface {
	SetKillSwitch(enabled bool)
}

type Switch struct {
	settings repository.SettingRepository
	cache    cache.Cacher
	observer Observer
	logger   *slog.Logger
}

func New(settings repository.SettingRepository, c cache.Cacher, observer Observer, logger *slog.Logger) *Switch {
	return &Switch{
		settings: settings,
		cache:    c,
		observer: observer,
		logger:   logger,
	}
}

// Enabled treats a missing setting as off.
func (s *Switch) Enabled() (bool, error) {
	var enabled bool
	found, err := cache.GetJSON(s.cache, cache.KillSwitchKey(), &enabled)
	if err != nil {
		s.logger.Warn("kill switch cache read failed", "error", err)
	}
	if found && err == nil {
		return enabled, nil
	}

	setting, found, err := s.settings.Get(repository.SettingKillSwitch)
	if err != nil {
		return false, err
	}

	if found {
		enabled, _ = strconv.ParseBool(setting.Value)
	}

	s.remember(enabled)
	return enabled, nil
}

func (s *Switch) Set(enabled bool, adminID string) error {
	if err := s.settings.Set(repository.SettingKillSwitch, strconv.FormatBool(enabled), adminID); err != nil {
		return err
	}

	s.remember(enabled)
	return nil
}

func (s *Switch) remember(enabled bool) {
	if err := cache.SetJSON(s.cache, cache.KillSwitchKey(), enabled, cache.KillSwitchTTL); err != nil {
		s.logger.Warn("kill switch cache write failed", "error", err)
	}

	if s.observer != nil {
		s.observer.SetKillSwitch(enabled)
	}
}
