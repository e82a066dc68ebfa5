package fireevent

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError is returned by Parse when a raw row cannot be projected onto a
// FireEvent: a required column is missing from the row, or a timestamp
// column holds a non-empty value none of the configured formats can parse
// (§4.3 Parsing, §7 Parse errors).
type ParseError struct {
	Column string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fireevent: parse error on column %q: %s", e.Column, e.Reason)
}

// Parse projects a raw CSV/JSON row onto a FireEvent. It is a total function
// from (row, timestamp formats) to (event, error): every failure mode is a
// *ParseError naming the offending column.
func Parse(row Getter, formats []string) (*FireEvent, error) {
	req := func(col string) (string, error) {
		if !row.Has(col) {
			return "", &ParseError{Column: col, Reason: "missing required column"}
		}
		return row.Get(col), nil
	}

	ts := func(col string) (*time.Time, error) {
		raw, err := req(col)
		if err != nil {
			return nil, err
		}
		if raw == "" {
			return nil, nil
		}
		t, ok := tryParseTime(raw, formats)
		if !ok {
			return nil, &ParseError{Column: col, Reason: fmt.Sprintf("unparseable timestamp %q", raw)}
		}
		return &t, nil
	}

	opt := func(col string) (*string, error) {
		v, err := req(col)
		if err != nil {
			return nil, err
		}
		if v == "" {
			return nil, nil
		}
		return &v, nil
	}

	intOf := func(col string) (int, error) {
		v, err := req(col)
		if err != nil {
			return 0, err
		}
		return toInt(v), nil
	}

	var e FireEvent
	var err error

	if e.IncidentNumber, err = req(ColIncidentNumber); err != nil {
		return nil, err
	}
	exposure, err := intOf(ColExposureNumber)
	if err != nil {
		return nil, err
	}
	e.ExposureNumber = &exposure
	if e.ID, err = req(ColID); err != nil {
		return nil, err
	}
	if e.Address, err = req(ColAddress); err != nil {
		return nil, err
	}
	if e.IncidentDate, err = ts(ColIncidentDate); err != nil {
		return nil, err
	}
	if e.CallNumber, err = req(ColCallNumber); err != nil {
		return nil, err
	}
	if e.AlarmDtTm, err = ts(ColAlarmDtTm); err != nil {
		return nil, err
	}
	if e.ArrivalDtTm, err = ts(ColArrivalDtTm); err != nil {
		return nil, err
	}
	if e.CloseDtTm, err = ts(ColCloseDtTm); err != nil {
		return nil, err
	}
	if e.City, err = req(ColCity); err != nil {
		return nil, err
	}
	if e.Zipcode, err = req(ColZipcode); err != nil {
		return nil, err
	}
	if e.Battalion, err = req(ColBattalion); err != nil {
		return nil, err
	}
	if e.StationArea, err = req(ColStationArea); err != nil {
		return nil, err
	}
	if e.Box, err = opt(ColBox); err != nil {
		return nil, err
	}
	if e.SuppressionUnits, err = intOf(ColSuppressionUnits); err != nil {
		return nil, err
	}
	if e.SuppressionPersonnel, err = intOf(ColSuppressionPersonnel); err != nil {
		return nil, err
	}
	if e.EMSUnits, err = intOf(ColEMSUnits); err != nil {
		return nil, err
	}
	if e.EMSPersonnel, err = intOf(ColEMSPersonnel); err != nil {
		return nil, err
	}
	if e.OtherUnits, err = intOf(ColOtherUnits); err != nil {
		return nil, err
	}
	if e.OtherPersonnel, err = intOf(ColOtherPersonnel); err != nil {
		return nil, err
	}
	if e.FirstUnitOnScene, err = opt(ColFirstUnitOnScene); err != nil {
		return nil, err
	}
	if e.EstimatedPropertyLoss, err = opt(ColEstimatedPropertyLoss); err != nil {
		return nil, err
	}
	if e.EstimatedContentsLoss, err = opt(ColEstimatedContentsLoss); err != nil {
		return nil, err
	}
	if e.FireFatalities, err = intOf(ColFireFatalities); err != nil {
		return nil, err
	}
	if e.FireInjuries, err = intOf(ColFireInjuries); err != nil {
		return nil, err
	}
	if e.CivilianFatalities, err = intOf(ColCivilianFatalities); err != nil {
		return nil, err
	}
	if e.CivilianInjuries, err = intOf(ColCivilianInjuries); err != nil {
		return nil, err
	}
	if e.NumberOfAlarms, err = intOf(ColNumberOfAlarms); err != nil {
		return nil, err
	}
	if e.PrimarySituation, err = opt(ColPrimarySituation); err != nil {
		return nil, err
	}
	if e.MutualAid, err = opt(ColMutualAid); err != nil {
		return nil, err
	}
	if e.ActionTakenPrimary, err = opt(ColActionTakenPrimary); err != nil {
		return nil, err
	}
	if e.ActionTakenSecondary, err = opt(ColActionTakenSecondary); err != nil {
		return nil, err
	}
	if e.ActionTakenOther, err = opt(ColActionTakenOther); err != nil {
		return nil, err
	}
	if e.DetectorAlertedOccupants, err = opt(ColDetectorAlertedOccupants); err != nil {
		return nil, err
	}
	if e.PropertyUse, err = opt(ColPropertyUse); err != nil {
		return nil, err
	}
	if e.AreaOfFireOrigin, err = opt(ColAreaOfFireOrigin); err != nil {
		return nil, err
	}
	if e.IgnitionCause, err = opt(ColIgnitionCause); err != nil {
		return nil, err
	}
	if e.IgnitionFactorPrimary, err = opt(ColIgnitionFactorPrimary); err != nil {
		return nil, err
	}
	if e.IgnitionFactorSecondary, err = opt(ColIgnitionFactorSecondary); err != nil {
		return nil, err
	}
	if e.HeatSource, err = opt(ColHeatSource); err != nil {
		return nil, err
	}
	if e.ItemFirstIgnited, err = opt(ColItemFirstIgnited); err != nil {
		return nil, err
	}
	if e.HumanFactorsAssociatedWithIgnition, err = opt(ColHumanFactorsAssocIgnition); err != nil {
		return nil, err
	}
	if e.StructureType, err = opt(ColStructureType); err != nil {
		return nil, err
	}
	if e.StructureStatus, err = opt(ColStructureStatus); err != nil {
		return nil, err
	}
	if e.FloorOfFireOrigin, err = opt(ColFloorOfFireOrigin); err != nil {
		return nil, err
	}
	if e.FireSpread, err = opt(ColFireSpread); err != nil {
		return nil, err
	}
	if e.NoFlameSpread, err = opt(ColNoFlameSpread); err != nil {
		return nil, err
	}
	if e.NumberOfFloorsWithMinimumDamage, err = opt(ColFloorsMinimumDamage); err != nil {
		return nil, err
	}
	if e.NumberOfFloorsWithSignificantDamage, err = opt(ColFloorsSignificantDamage); err != nil {
		return nil, err
	}
	if e.NumberOfFloorsWithHeavyDamage, err = opt(ColFloorsHeavyDamage); err != nil {
		return nil, err
	}
	if e.NumberOfFloorsWithExtremeDamage, err = opt(ColFloorsExtremeDamage); err != nil {
		return nil, err
	}
	if e.DetectorsPresent, err = opt(ColDetectorsPresent); err != nil {
		return nil, err
	}
	if e.DetectorType, err = opt(ColDetectorType); err != nil {
		return nil, err
	}
	if e.DetectorOperation, err = opt(ColDetectorOperation); err != nil {
		return nil, err
	}
	if e.DetectorEffectiveness, err = opt(ColDetectorEffectiveness); err != nil {
		return nil, err
	}
	if e.DetectorFailureReason, err = opt(ColDetectorFailureReason); err != nil {
		return nil, err
	}
	if e.AutomaticExtinguishingSystemPresent, err = opt(ColAESPresent); err != nil {
		return nil, err
	}
	if e.AutomaticExtinguishingSystemType, err = opt(ColAESType); err != nil {
		return nil, err
	}
	if e.AutomaticExtinguishingSystemPerformance, err = opt(ColAESPerformance); err != nil {
		return nil, err
	}
	if e.AutomaticExtinguishingSystemFailureReason, err = opt(ColAESFailureReason); err != nil {
		return nil, err
	}
	if e.NumberOfSprinklerHeadsOperating, err = opt(ColSprinklerHeadsOperating); err != nil {
		return nil, err
	}
	if e.SupervisorDistrict, err = opt(ColSupervisorDistrict); err != nil {
		return nil, err
	}
	if e.NeighborhoodDistrict, err = opt(ColNeighborhoodDistrict); err != nil {
		return nil, err
	}
	if e.Point, err = opt(ColPoint); err != nil {
		return nil, err
	}
	if e.DataAsOf, err = opt(ColDataAsOf); err != nil {
		return nil, err
	}
	if e.DataLoadedAt, err = opt(ColDataLoadedAt); err != nil {
		return nil, err
	}

	return &e, nil
}

// Getter is satisfied by fireevent.RawRow and any other column-indexed source
// (kept as an interface so Parse does not depend on the CSV reader package).
type Getter interface {
	Get(column string) string
	Has(column string) bool
}

// toInt coerces a string to an int, defaulting to 0 for empty or non-numeric
// input (§3 invariant — integers are never "absent").
func toInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// tryParseTime tries each format in order, first match wins (§4.3 Parsing).
func tryParseTime(value string, formats []string) (time.Time, bool) {
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
