package mot

import "strings"

// Category is the fixed object class a detection or track belongs to.
type Category string

// Categories understood by the tracker.
const (
	CategoryPlayer    Category = "player"
	CategoryBall      Category = "ball"
	CategoryReferee   Category = "referee"
	CategoryEquipment Category = "equipment"
	CategoryGoal      Category = "goal"
	CategoryNet       Category = "net"
	CategoryLine      Category = "line"
	CategoryUnknown   Category = "unknown"
)

// categoryRules are checked in order; the first substring hit wins.
var categoryRules = []struct {
	substrings []string
	category   Category
}{
	{[]string{"person", "player"}, CategoryPlayer},
	{[]string{"ball"}, CategoryBall},
	{[]string{"referee", "umpire"}, CategoryReferee},
	{[]string{"goal"}, CategoryGoal},
	{[]string{"net"}, CategoryNet},
	{[]string{"line"}, CategoryLine},
}

// CategoryFromLabel maps a free text class label to a Category. There is no label rule for
// equipment.
func CategoryFromLabel(label string) Category {
	l := strings.ToLower(label)
	for _, rule := range categoryRules {
		for _, s := range rule.substrings {
			if strings.Contains(l, s) {
				return rule.category
			}
		}
	}
	return CategoryUnknown
}

// Detection is one perception output for one frame. It is not modified after construction.
type Detection struct {
	Box        Box
	Confidence float64
	ClassID    int
	ClassName  string
	Category   Category
	Timestamp  float64
}

// NewDetection builds a Detection, deriving its category from the class name.
func NewDetection(box Box, confidence float64, classID int, className string, timestamp float64) Detection {
	return Detection{
		Box:        box,
		Confidence: confidence,
		ClassID:    classID,
		ClassName:  className,
		Category:   CategoryFromLabel(className),
		Timestamp:  timestamp,
	}
}
