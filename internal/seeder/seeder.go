package seeders

import (
	"fmt"
	"log/slog"

	"github.com/cradoe/splitsy/internal/repository"
)

// Seeder puts the settings and accounts the API expects in place. Every step
// is safe to run on each start.
type Seeder struct {
	Settings           repository.SettingRepository
	UserRepo           repository.UserRepository
	PlatformAdminEmail string
	Logger             *slog.Logger
}

func New(seeder *Seeder) *Seeder {
	return &Seeder{
		Settings:           seeder.Settings,
		UserRepo:           seeder.UserRepo,
		PlatformAdminEmail: seeder.PlatformAdminEmail,
		Logger:             seeder.Logger,
	}
}

func (seeder *Seeder) Run() error {
	if err := seeder.seedKillSwitch(); err != nil {
		return err
	}

	return seeder.seedPlatformAdmin()
}

// seedKillSwitch creates the kill switch, off, unless an admin already set it.
func (seeder *Seeder) seedKillSwitch() error {
	_, found, err := seeder.Settings.Get(repository.SettingKillSwitch)
	if err != nil {
		return fmt.Errorf("read kill switch: %w", err)
	}
	if found {
		return nil
	}

	err = seeder.Settings.Set(repository.SettingKillSwitch, "false", "")
	if err != nil {
		return fmt.Errorf("seed kill switch: %w", err)
	}

	seeder.Logger.Info("seeded setting", "key", repository.SettingKillSwitch)
	return nil
}

// seedPlatformAdmin grants the platform admin flag to the configured email,
// once that person has registered.
func (seeder *Seeder) seedPlatformAdmin() error {
	if seeder.PlatformAdminEmail == "" {
		return nil
	}

	promoted, err := seeder.UserRepo.PromoteToPlatformAdmin(seeder.PlatformAdminEmail)
	if err != nil {
		return fmt.Errorf("promote platform admin: %w", err)
	}

	if !promoted {
		seeder.Logger.Warn("platform admin has not registered yet", "email", seeder.PlatformAdminEmail)
		return nil
	}

	seeder.Logger.Info("platform admin promoted", "email", seeder.PlatformAdminEmail)
	return nil
}
