package model

import "time"

// Settings keys gating exam availability, one per exam type.
const (
	SettingExamsEnabled  = "exams_enabled"
	SettingCATestEnabled = "ca_test_enabled"
)

// SettingKeyForExamType returns the availability settings key for an exam type.
func SettingKeyForExamType(t ExamType) string {
	if t == ExamTypeContinuousAssessment {
		return SettingCATestEnabled
	}
	return SettingExamsEnabled
}

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required"`
}
