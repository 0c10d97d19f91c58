package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/mmynk/weighttrack/internal/models"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

const minPasswordLen = 6

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "dateformat", oneOf(models.DateFormatPresets))
	mustRegister(v, "timeformat", oneOf(models.TimeFormatPresets))
	mustRegister(v, "datelocale", oneOf(models.DateLocales))
	mustRegister(v, "activityicon", func(fl validator.FieldLevel) bool {
		return models.IsActivityIcon(fl.Field().String())
	})
	mustRegister(v, "activitycolor", func(fl validator.FieldLevel) bool {
		return models.IsActivityColor(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation %q: %v", tag, err))
	}
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return lo.Contains(allowed, fl.Field().String())
	}
}

// validateStruct runs the struct tags of s and converts the first failure
// into a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	return &ValidationError{Field: field, Reason: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "dateformat":
		return "must be one of " + strings.Join(models.DateFormatPresets, ", ")
	case "timeformat":
		return "must be one of " + strings.Join(models.TimeFormatPresets, ", ")
	case "datelocale":
		return "must be one of " + strings.Join(models.DateLocales, ", ")
	case "activityicon":
		return fmt.Sprintf("%q is not a known icon", fe.Value())
	case "activitycolor":
		return fmt.Sprintf("%q is not an offered color", fe.Value())
	default:
		return "failed on " + fe.Tag()
	}
}

// ValidateActivities checks an activity list: 1 to models.MaxActivities
// items, each with a non-blank label, a catalog icon and an offered color
// (or none), ids unique.
func ValidateActivities(activities []models.CustomActivity) error {
	if len(activities) == 0 {
		return invalid("activities", "at least one activity is required")
	}
	if len(activities) > models.MaxActivities {
		return invalid("activities", "at most %d activities are allowed", models.MaxActivities)
	}
	for i, a := range activities {
		field := fmt.Sprintf("activities[%d]", i)
		if err := validateStruct(a); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Field = field + "." + ve.Field
			}
			return err
		}
		if strings.TrimSpace(a.Label) == "" {
			return invalid(field+".label", "must not be blank")
		}
	}
	dups := lo.FindDuplicatesBy(activities, func(a models.CustomActivity) models.ActivityID {
		return a.ID
	})
	if len(dups) > 0 {
		return invalid("activities", "duplicate activity id %q", dups[0].ID)
	}
	return nil
}

// ValidateSettingsPatch checks every field present in p.
func ValidateSettingsPatch(p models.SettingsPatch) error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if p.TargetWeight.Value != nil && *p.TargetWeight.Value <= 0 {
		return invalid("targetWeight", "must be greater than 0 or null")
	}
	if p.Activities != nil {
		return ValidateActivities(p.Activities)
	}
	return nil
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return invalid("username", "must be 3-20 characters of letters, digits or underscore")
	}
	return nil
}

func validatePassword(field, password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid(field, "must be at least %d characters", minPasswordLen)
	}
	return nil
}
