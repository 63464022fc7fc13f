package model

// Canonical field names shared by every source schema.
const (
	FieldPosition         = "position"
	FieldPositionGun      = "position_gun"
	FieldPositionHandicap = "position_handicap"
	FieldBib              = "bib"
	FieldNameFull         = "name_full"
	FieldAge              = "age"
	FieldGender           = "gender"
	FieldCity             = "city"
	FieldState            = "state"
	FieldCountry          = "country"
	FieldTimeGun          = "time_gun"
	FieldTimeChip         = "time_chip"
	FieldTimeHandicap     = "time_handicap"
	FieldHandicap         = "handicap"
	FieldAvgPace          = "avg_pace"
	FieldDivisionPlace    = "division_place"
	FieldDivision         = "division"
)

// KnownField reports whether name is a canonical field.
func KnownField(name string) bool {
	switch name {
	case FieldPosition, FieldPositionGun, FieldPositionHandicap, FieldBib,
		FieldNameFull, FieldAge, FieldGender, FieldCity, FieldState, FieldCountry,
		FieldTimeGun, FieldTimeChip, FieldTimeHandicap, FieldHandicap,
		FieldAvgPace, FieldDivisionPlace, FieldDivision:
		return true
	}
	return false
}
