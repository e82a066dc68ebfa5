// Package fireevent defines the Fire Event domain record (§3) and the total
// parsing function that projects a raw CSV row onto it.
package fireevent

import "time"

// Column name constants, taken verbatim from the source CSV header (including
// its "Sytem" typo in three Automatic Extinguishing System columns — the
// upstream dataset really is spelled this way and the projection in §4.3
// reads it as-is).
const (
	ColIncidentNumber = "Incident Number"
	ColExposureNumber = "Exposure Number"
	ColID             = "ID"
	ColAddress        = "Address"
	ColIncidentDate   = "Incident Date"
	ColCallNumber     = "Call Number"
	ColAlarmDtTm      = "Alarm DtTm"
	ColArrivalDtTm    = "Arrival DtTm"
	ColCloseDtTm      = "Close DtTm"
	ColCity           = "City"
	ColZipcode        = "zipcode"
	ColBattalion      = "Battalion"
	ColStationArea    = "Station Area"
	ColBox            = "Box"

	ColSuppressionUnits     = "Suppression Units"
	ColSuppressionPersonnel = "Suppression Personnel"
	ColEMSUnits             = "EMS Units"
	ColEMSPersonnel         = "EMS Personnel"
	ColOtherUnits           = "Other Units"
	ColOtherPersonnel       = "Other Personnel"
	ColFirstUnitOnScene     = "First Unit On Scene"

	ColEstimatedPropertyLoss = "Estimated Property Loss"
	ColEstimatedContentsLoss = "Estimated Contents Loss"
	ColFireFatalities        = "Fire Fatalities"
	ColFireInjuries          = "Fire Injuries"
	ColCivilianFatalities    = "Civilian Fatalities"
	ColCivilianInjuries      = "Civilian Injuries"
	ColNumberOfAlarms        = "Number of Alarms"
	ColPrimarySituation      = "Primary Situation"
	ColMutualAid             = "Mutual Aid"
	ColActionTakenPrimary    = "Action Taken Primary"
	ColActionTakenSecondary  = "Action Taken Secondary"
	ColActionTakenOther      = "Action Taken Other"
	ColDetectorAlertedOccupants = "Detector Alerted Occupants"
	ColPropertyUse           = "Property Use"

	ColAreaOfFireOrigin           = "Area of Fire Origin"
	ColIgnitionCause              = "Ignition Cause"
	ColIgnitionFactorPrimary      = "Ignition Factor Primary"
	ColIgnitionFactorSecondary    = "Ignition Factor Secondary"
	ColHeatSource                 = "Heat Source"
	ColItemFirstIgnited           = "Item First Ignited"
	ColHumanFactorsAssocIgnition  = "Human Factors Associated with Ignition"
	ColStructureType              = "Structure Type"
	ColStructureStatus            = "Structure Status"
	ColFloorOfFireOrigin          = "Floor of Fire Origin"
	ColFireSpread                 = "Fire Spread"
	ColNoFlameSpread              = "No Flame Spread"
	ColFloorsMinimumDamage        = "Number of floors with minimum damage"
	ColFloorsSignificantDamage    = "Number of floors with significant damage"
	ColFloorsHeavyDamage          = "Number of floors with heavy damage"
	ColFloorsExtremeDamage        = "Number of floors with extreme damage"

	ColDetectorsPresent       = "Detectors Present"
	ColDetectorType           = "Detector Type"
	ColDetectorOperation      = "Detector Operation"
	ColDetectorEffectiveness  = "Detector Effectiveness"
	ColDetectorFailureReason  = "Detector Failure Reason"
	ColAESPresent             = "Automatic Extinguishing System Present"
	ColAESType                = "Automatic Extinguishing Sytem Type"
	ColAESPerformance         = "Automatic Extinguishing Sytem Perfomance"
	ColAESFailureReason       = "Automatic Extinguishing Sytem Failure Reason"
	ColSprinklerHeadsOperating = "Number of Sprinkler Heads Operating"

	ColSupervisorDistrict   = "Supervisor District"
	ColNeighborhoodDistrict = "neighborhood_district"
	ColPoint                = "point"
	ColDataAsOf             = "data_as_of"
	ColDataLoadedAt         = "data_loaded_at"
)

// FireEvent is the canonical, tagged-schema record a raw CSV row projects
// onto (§3, §9 "tagged schema" design note). An integer column that was
// empty or non-numeric parses to 0 (§3 invariant): the count fields are
// plain ints, and ExposureNumber, the one *int, is always set by Parse.
// Timestamp columns and the optional free-text columns are pointers: empty
// means absent. The identity and core location columns (IncidentNumber, ID,
// CallNumber, Address, City, Zipcode, Battalion, StationArea) are plain
// strings, where empty is "".
type FireEvent struct {
	// Identity
	IncidentNumber string
	ExposureNumber *int
	ID             string
	CallNumber     string

	// Timestamps
	IncidentDate *time.Time
	AlarmDtTm    *time.Time
	ArrivalDtTm  *time.Time
	CloseDtTm    *time.Time

	// Location
	Address              string
	City                 string
	Zipcode              string
	Battalion            string
	StationArea          string
	Box                  *string
	NeighborhoodDistrict *string
	SupervisorDistrict   *string
	Point                *string

	// Response
	SuppressionUnits     int
	SuppressionPersonnel int
	EMSUnits             int
	EMSPersonnel         int
	OtherUnits           int
	OtherPersonnel       int
	FirstUnitOnScene     *string

	// Outcomes
	EstimatedPropertyLoss    *string
	EstimatedContentsLoss    *string
	FireFatalities           int
	FireInjuries             int
	CivilianFatalities       int
	CivilianInjuries         int
	NumberOfAlarms           int
	PrimarySituation         *string
	MutualAid                *string
	ActionTakenPrimary       *string
	ActionTakenSecondary     *string
	ActionTakenOther         *string
	DetectorAlertedOccupants *string
	PropertyUse              *string

	// Fire origin
	AreaOfFireOrigin                  *string
	IgnitionCause                     *string
	IgnitionFactorPrimary             *string
	IgnitionFactorSecondary           *string
	HeatSource                        *string
	ItemFirstIgnited                  *string
	HumanFactorsAssociatedWithIgnition *string
	StructureType                     *string
	StructureStatus                   *string
	FloorOfFireOrigin                 *string

	// Fire spread
	FireSpread                          *string
	NoFlameSpread                       *string
	NumberOfFloorsWithMinimumDamage     *string
	NumberOfFloorsWithSignificantDamage *string
	NumberOfFloorsWithHeavyDamage       *string
	NumberOfFloorsWithExtremeDamage     *string

	// Detector
	DetectorsPresent       *string
	DetectorType           *string
	DetectorOperation      *string
	DetectorEffectiveness  *string
	DetectorFailureReason  *string

	// Extinguishing system
	AutomaticExtinguishingSystemPresent       *string
	AutomaticExtinguishingSystemType          *string
	AutomaticExtinguishingSystemPerformance   *string
	AutomaticExtinguishingSystemFailureReason *string
	NumberOfSprinklerHeadsOperating           *string

	// Provenance
	DataAsOf     *string
	DataLoadedAt *string
}

// field pairs a quality-rule/hash field name with its current value. nil or
// "" marks the field empty for the purposes of §4.3's quality rules.
type field struct {
	name  string
	value any
}

// fields enumerates every attribute in the same grouping order as §3,
// mirroring the Python dataclass's __dict__ iteration used by
// data_quality_analysis in the source pipeline.
func (e *FireEvent) fields() []field {
	return []field{
		{"Incident_Number", e.IncidentNumber},
		{"Exposure_Number", e.ExposureNumber},
		{"ID", e.ID},
		{"Call_Number", e.CallNumber},
		{"Incident_Date", e.IncidentDate},
		{"Alarm_DtTm", e.AlarmDtTm},
		{"Arrival_DtTm", e.ArrivalDtTm},
		{"Close_DtTm", e.CloseDtTm},
		{"Address", e.Address},
		{"City", e.City},
		{"zipcode", e.Zipcode},
		{"Battalion", e.Battalion},
		{"Station_Area", e.StationArea},
		{"Box", e.Box},
		{"neighborhood_district", e.NeighborhoodDistrict},
		{"Supervisor_District", e.SupervisorDistrict},
		{"point", e.Point},
		{"Suppression_Units", e.SuppressionUnits},
		{"Suppression_Personnel", e.SuppressionPersonnel},
		{"EMS_Units", e.EMSUnits},
		{"EMS_Personnel", e.EMSPersonnel},
		{"Other_Units", e.OtherUnits},
		{"Other_Personnel", e.OtherPersonnel},
		{"First_Unit_On_Scene", e.FirstUnitOnScene},
		{"Estimated_Property_Loss", e.EstimatedPropertyLoss},
		{"Estimated_Contents_Loss", e.EstimatedContentsLoss},
		{"Fire_Fatalities", e.FireFatalities},
		{"Fire_Injuries", e.FireInjuries},
		{"Civilian_Fatalities", e.CivilianFatalities},
		{"Civilian_Injuries", e.CivilianInjuries},
		{"Number_of_Alarms", e.NumberOfAlarms},
		{"Primary_Situation", e.PrimarySituation},
		{"Mutual_Aid", e.MutualAid},
		{"Action_Taken_Primary", e.ActionTakenPrimary},
		{"Action_Taken_Secondary", e.ActionTakenSecondary},
		{"Action_Taken_Other", e.ActionTakenOther},
		{"Detector_Alerted_Occupants", e.DetectorAlertedOccupants},
		{"Property_Use", e.PropertyUse},
		{"Area_of_Fire_Origin", e.AreaOfFireOrigin},
		{"Ignition_Cause", e.IgnitionCause},
		{"Ignition_Factor_Primary", e.IgnitionFactorPrimary},
		{"Ignition_Factor_Secondary", e.IgnitionFactorSecondary},
		{"Heat_Source", e.HeatSource},
		{"Item_First_Ignited", e.ItemFirstIgnited},
		{"Human_Factors_Associated_with_Ignition", e.HumanFactorsAssociatedWithIgnition},
		{"Structure_Type", e.StructureType},
		{"Structure_Status", e.StructureStatus},
		{"Floor_of_Fire_Origin", e.FloorOfFireOrigin},
		{"Fire_Spread", e.FireSpread},
		{"No_Flame_Spread", e.NoFlameSpread},
		{"Number_of_floors_with_minimum_damage", e.NumberOfFloorsWithMinimumDamage},
		{"Number_of_floors_with_significant_damage", e.NumberOfFloorsWithSignificantDamage},
		{"Number_of_floors_with_heavy_damage", e.NumberOfFloorsWithHeavyDamage},
		{"Number_of_floors_with_extreme_damage", e.NumberOfFloorsWithExtremeDamage},
		{"Detectors_Present", e.DetectorsPresent},
		{"Detector_Type", e.DetectorType},
		{"Detector_Operation", e.DetectorOperation},
		{"Detector_Effectiveness", e.DetectorEffectiveness},
		{"Detector_Failure_Reason", e.DetectorFailureReason},
		{"Automatic_Extinguishing_System_Present", e.AutomaticExtinguishingSystemPresent},
		{"Automatic_Extinguishing_System_Type", e.AutomaticExtinguishingSystemType},
		{"Automatic_Extinguishing_System_Perfomance", e.AutomaticExtinguishingSystemPerformance},
		{"Automatic_Extinguishing_System_Failure_Reason", e.AutomaticExtinguishingSystemFailureReason},
		{"Number_of_Sprinkler_Heads_Operating", e.NumberOfSprinklerHeadsOperating},
		{"data_as_of", e.DataAsOf},
		{"data_loaded_at", e.DataLoadedAt},
	}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case *string:
		return t == nil || *t == ""
	case *int:
		return t == nil
	case *time.Time:
		return t == nil
	case int:
		return false // integers default to 0 and are never "absent" (§3 invariant)
	default:
		return v == nil
	}
}
