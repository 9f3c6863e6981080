package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/zulumai/exam-portal/internal/model"
	"github.com/zulumai/exam-portal/internal/repository"
)

type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string)
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	// Simple iterative upsert since settings are low volume.
	for key, value := range settingsMap {
		if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("failed to update setting")
			return err
		}
	}
	return nil
}

// SetExamEnabled flips the availability toggle for one exam type.
func (s *SettingService) SetExamEnabled(ctx context.Context, t model.ExamType, enabled bool) error {
	key := model.SettingKeyForExamType(t)
	if err := s.settingRepo.Upsert(ctx, key, strconv.FormatBool(enabled)); err != nil {
		return err
	}
	s.log.Info().Str("exam_type", string(t)).Bool("enabled", enabled).Msg("Exam availability updated")
	return nil
}

// IsExamEnabled reports whether an exam type is open for students.
// A missing settings row means disabled.
func (s *SettingService) IsExamEnabled(ctx context.Context, t model.ExamType) (bool, error) {
	setting, err := s.settingRepo.GetByKey(ctx, model.SettingKeyForExamType(t))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		return false, nil
	}
	return enabled, nil
}
