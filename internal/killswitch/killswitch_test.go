package killswitch

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cradoe/splitsy/internal/mocks"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	values []bool
}

func (o *recordingObserver) SetKillSwitch(enabled bool) {
	o.values = append(o.values, enabled)
}

func newSwitch(settings *mocks.MockSettingRepo, observer Observer) *Switch {
	return New(settings, mocks.NewMemoryCache(), observer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEnabledDefaultsToOff(t *testing.T) {
	settings := new(mocks.MockSettingRepo)
	settings.On("Get", repository.SettingKillSwitch).Return(nil, false, nil).Once()

	enabled, err := newSwitch(settings, nil).Enabled()
	require.NoError(t, err)
	require.False(t, enabled)
}

func TestSetPersistsAndRefreshesCache(t *testing.T) {
	settings := new(mocks.MockSettingRepo)
	settings.On("Set", repository.SettingKillSwitch, "true", "admin-1").Return(nil).Once()
	observer := &recordingObserver{}

	s := newSwitch(settings, observer)
	require.NoError(t, s.Set(true, "admin-1"))

	// the cached value answers without touching the settings table
	enabled, err := s.Enabled()
	require.NoError(t, err)
	require.True(t, enabled)

	require.Equal(t, []bool{true}, observer.values)
	settings.AssertExpectations(t)
}

func TestEnabledReadsStoredSetting(t *testing.T) {
	settings := new(mocks.MockSettingRepo)
	settings.On("Get", repository.SettingKillSwitch).
		Return(&models.SystemSetting{Key: repository.SettingKillSwitch, Value: "true"}, true, nil).Once()

	enabled, err := newSwitch(settings, nil).Enabled()
	require.NoError(t, err)
	require.True(t, enabled)
}
