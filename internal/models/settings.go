package models

import (
	"encoding/json"
	"time"
)

// WeightUnit labels how weights are displayed. Changing it does not convert
// stored values.
type WeightUnit string

const (
	UnitKg WeightUnit = "kg"
	UnitLb WeightUnit = "lb"
)

// WaterUnit is the display unit for water intake.
type WaterUnit string

const (
	WaterML WaterUnit = "ml"
	WaterOz WaterUnit = "oz"
)

// ChartColor is the accent color of the weight chart.
type ChartColor string

const (
	ChartPrimary ChartColor = "primary"
	ChartBlue    ChartColor = "blue"
	ChartGreen   ChartColor = "green"
	ChartOrange  ChartColor = "orange"
	ChartPurple  ChartColor = "purple"
)

// Date format presets accepted by SingleDateFormat.DateFormat.
var DateFormatPresets = []string{
	"dd/MM/yyyy", "MM/dd/yyyy", "yyyy-MM-dd", "dd MMM yyyy",
	"EEE dd/MM", "EEE.dd/MM", "dd/MM", "MMM dd", "custom",
}

// Time format presets accepted by SingleDateFormat.TimeFormat.
var TimeFormatPresets = []string{"HH:mm", "hh:mm a", "none"}

// DateLocales are the locales available for weekday and month names.
var DateLocales = []string{"en", "it", "de", "fr", "es"}

// SingleDateFormat controls how dates render in one place of the UI.
type SingleDateFormat struct {
	DateFormat string `json:"dateFormat" validate:"required,dateformat"`

	// CustomDateFormat is only used when DateFormat is "custom".
	CustomDateFormat string `json:"customDateFormat,omitempty" validate:"required_if=DateFormat custom"`

	TimeFormat  string `json:"timeFormat" validate:"required,timeformat"`
	ShowWeekday bool   `json:"showWeekday"`
}

// DateFormatSettings holds the three date formats and their shared locale.
type DateFormatSettings struct {
	Locale        string           `json:"locale" validate:"required,datelocale"`
	TableFormat   SingleDateFormat `json:"tableFormat"`
	TooltipFormat SingleDateFormat `json:"tooltipFormat"`
	AxisFormat    SingleDateFormat `json:"axisFormat"`
}

// DefaultDateFormat is the built-in date format configuration.
func DefaultDateFormat() DateFormatSettings {
	return DateFormatSettings{
		Locale: "it",
		TableFormat: SingleDateFormat{
			DateFormat: "EEE.dd/MM",
			TimeFormat: "HH:mm",
		},
		TooltipFormat: SingleDateFormat{
			DateFormat:  "dd/MM/yyyy",
			TimeFormat:  "HH:mm",
			ShowWeekday: true,
		},
		AxisFormat: SingleDateFormat{
			DateFormat: "dd/MM",
			TimeFormat: "none",
		},
	}
}

// UserSettings holds one user's preferences.
type UserSettings struct {
	// UserID is the owning username. Immutable.
	UserID string `json:"userId"`

	Unit      WeightUnit `json:"unit"`
	WaterUnit WaterUnit  `json:"waterUnit"`

	// TargetWeight is compared as entered, like entry weights; nil when no goal is set.
	TargetWeight *float64 `json:"targetWeight"`

	ChartColor ChartColor         `json:"chartColor"`
	DateFormat DateFormatSettings `json:"dateFormat"`

	// Activities is the ordered activity list, 1 to MaxActivities long.
	Activities []CustomActivity `json:"activities"`

	// CreatedAt is immutable.
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultSettings returns the document synthesized for a user with no settings file.
func DefaultSettings(userID string, now time.Time) UserSettings {
	return UserSettings{
		UserID:     userID,
		Unit:       UnitKg,
		WaterUnit:  WaterML,
		ChartColor: ChartPrimary,
		DateFormat: DefaultDateFormat(),
		Activities: DefaultActivities(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Normalize fills every field missing from an older document with its default.
// It reports whether anything was filled in.
func (s *UserSettings) Normalize(userID string) bool {
	changed := false
	if s.UserID == "" {
		s.UserID = userID
		changed = true
	}
	if s.Unit == "" {
		s.Unit = UnitKg
		changed = true
	}
	if s.WaterUnit == "" {
		s.WaterUnit = WaterML
		changed = true
	}
	if s.ChartColor == "" {
		s.ChartColor = ChartPrimary
		changed = true
	}
	if s.DateFormat.normalize() {
		changed = true
	}
	if len(s.Activities) == 0 {
		s.Activities = DefaultActivities()
		changed = true
	}
	for i := range s.Activities {
		if s.Activities[i].Color == "" {
			s.Activities[i].Color = DefaultActivityColor
			changed = true
		}
	}
	return changed
}

func (d *DateFormatSettings) normalize() bool {
	def := DefaultDateFormat()
	changed := false
	if d.Locale == "" {
		d.Locale = def.Locale
		changed = true
	}
	for _, f := range []struct {
		cur *SingleDateFormat
		def SingleDateFormat
	}{
		{&d.TableFormat, def.TableFormat},
		{&d.TooltipFormat, def.TooltipFormat},
		{&d.AxisFormat, def.AxisFormat},
	} {
		if f.cur.DateFormat == "" || f.cur.TimeFormat == "" {
			*f.cur = f.def
			changed = true
		}
	}
	return changed
}

// NullableFloat distinguishes an absent JSON field from an explicit null.
type NullableFloat struct {
	// Set is true when the field was present, including as null.
	Set   bool
	Value *float64
}

// UnmarshalJSON is only invoked for present fields, so it always marks Set.
func (n *NullableFloat) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// SettingsPatch is a partial update of UserSettings. Nil fields are left unchanged.
// UserID and CreatedAt are not patchable.
type SettingsPatch struct {
	Unit         *WeightUnit         `json:"unit,omitempty" validate:"omitnil,oneof=kg lb"`
	WaterUnit    *WaterUnit          `json:"waterUnit,omitempty" validate:"omitnil,oneof=ml oz"`
	TargetWeight NullableFloat       `json:"targetWeight"`
	ChartColor   *ChartColor         `json:"chartColor,omitempty" validate:"omitnil,oneof=primary blue green orange purple"`
	DateFormat   *DateFormatSettings `json:"dateFormat,omitempty"`
	Activities   []CustomActivity    `json:"activities,omitempty"`
}

// Apply merges the set fields of p into s.
func (s *UserSettings) Apply(p SettingsPatch) {
	if p.Unit != nil {
		s.Unit = *p.Unit
	}
	if p.WaterUnit != nil {
		s.WaterUnit = *p.WaterUnit
	}
	if p.TargetWeight.Set {
		s.TargetWeight = p.TargetWeight.Value
	}
	if p.ChartColor != nil {
		s.ChartColor = *p.ChartColor
	}
	if p.DateFormat != nil {
		s.DateFormat = *p.DateFormat
	}
	if p.Activities != nil {
		s.Activities = append([]CustomActivity(nil), p.Activities...)
	}
}
