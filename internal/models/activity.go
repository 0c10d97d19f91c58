package models

// MaxActivities is the largest activity list a user may configure.
const MaxActivities = 12

// CustomActivity is a user-defined activity type that weight entries reference.
type CustomActivity struct {
	// ID is unique within the owner's activity list.
	ID ActivityID `json:"id" validate:"required"`

	// Label is the display name.
	Label string `json:"label" validate:"required"`

	// Icon must belong to ActivityIconCategories.
	Icon string `json:"icon" validate:"activityicon"`

	// Color is a CSS class from ActivityColors. Empty means DefaultActivityColor.
	Color string `json:"color" validate:"omitempty,activitycolor"`
}

// IconCategory groups activity icons for the picker.
type IconCategory struct {
	Name  string
	Icons []string
}

// ActivityIconCategories is the fixed icon catalog.
var ActivityIconCategories = []IconCategory{
	{
		Name:  "Fitness",
		Icons: []string{"Dumbbell", "Activity", "Heart", "Flame", "Zap", "Timer", "Trophy", "Medal", "Target", "TrendingUp"},
	},
	{
		Name:  "Sports",
		Icons: []string{"Bike", "Waves", "Mountain", "Footprints", "PersonStanding", "Snowflake", "Tent", "TreePine", "Compass", "Map"},
	},
	{
		Name:  "Rest & Wellness",
		Icons: []string{"Sofa", "Moon", "Sun", "Coffee", "Bed", "Bath", "Sparkles", "Wind", "Cloud", "Leaf"},
	},
	{
		Name:  "General",
		Icons: []string{"Star", "Circle", "Square", "Triangle", "Hexagon", "Plus", "Check", "X", "Bookmark", "Flag"},
	},
}

var activityIcons = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, c := range ActivityIconCategories {
		for _, icon := range c.Icons {
			m[icon] = struct{}{}
		}
	}
	return m
}()

// IsActivityIcon reports whether icon belongs to the catalog.
func IsActivityIcon(icon string) bool {
	_, ok := activityIcons[icon]
	return ok
}

// ActivityColor is a selectable activity color.
type ActivityColor struct {
	Name    string
	Value   string // CSS class
	Preview string // hex
}

// DefaultActivityColor is used for activities saved without a color.
const DefaultActivityColor = "text-muted-foreground"

// ActivityColors are the colors offered by the activity editor.
var ActivityColors = []ActivityColor{
	{Name: "Gray", Value: DefaultActivityColor, Preview: "#71717a"},
	{Name: "Blue", Value: "text-blue-500", Preview: "#3b82f6"},
	{Name: "Green", Value: "text-green-500", Preview: "#22c55e"},
	{Name: "Red", Value: "text-red-500", Preview: "#ef4444"},
	{Name: "Orange", Value: "text-orange-500", Preview: "#f97316"},
	{Name: "Yellow", Value: "text-yellow-500", Preview: "#eab308"},
	{Name: "Purple", Value: "text-purple-500", Preview: "#a855f7"},
	{Name: "Pink", Value: "text-pink-500", Preview: "#ec4899"},
	{Name: "Cyan", Value: "text-cyan-500", Preview: "#06b6d4"},
	{Name: "Indigo", Value: "text-indigo-500", Preview: "#6366f1"},
}

// IsActivityColor reports whether value is one of ActivityColors.
func IsActivityColor(value string) bool {
	for _, c := range ActivityColors {
		if c.Value == value {
			return true
		}
	}
	return false
}

// DefaultActivities returns the built-in rest/weights/cardio list.
// The ids match the numeric training codes of older entries.
func DefaultActivities() []CustomActivity {
	return []CustomActivity{
		{ID: "0", Label: "Rest", Icon: "Sofa", Color: DefaultActivityColor},
		{ID: "1", Label: "Weights", Icon: "Dumbbell", Color: "text-blue-500"},
		{ID: "2", Label: "Cardio", Icon: "Activity", Color: "text-green-500"},
	}
}
