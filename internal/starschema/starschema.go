// Package starschema implements the star-schema decomposition helper (§9,
// "optional to port"): a pure function splitting a Fire Event into the
// dimension/fact tables the original pipeline's analytics layer builds on
// top of the serving store. It is not wired into any of the three stages —
// §9 explicitly treats it as an external collaborator — but is exported for
// callers (e.g. a future warehouse loader) that want it.
package starschema

import (
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
)

// Location is the Location dimension.
type Location struct {
	ID                   string
	Address              string
	City                 string
	Zipcode              string
	NeighborhoodDistrict *string
	SupervisorDistrict   *string
	Point                *string
}

// DateTime is the DateTime dimension.
type DateTime struct {
	ID           string
	IncidentDate *time.Time
	AlarmDtTm    *time.Time
	ArrivalDtTm  *time.Time
	CloseDtTm    *time.Time
	DataAsOf     *string
	DataLoadedAt *string
}

// Incident is the Incident dimension.
type Incident struct {
	IncidentNumber   string
	ExposureNumber   *int
	CallNumber       string
	Battalion        string
	StationArea      string
	Box              *string
	FirstUnitOnScene *string
	PrimarySituation *string
	MutualAid        *string
}

// Detector is the Detector dimension.
type Detector struct {
	ID                    string
	DetectorsPresent      *string
	DetectorType          *string
	DetectorOperation     *string
	DetectorEffectiveness *string
	DetectorFailureReason *string
}

// Suppression is the Suppression dimension.
type Suppression struct {
	ID                   string
	SuppressionUnits     int
	SuppressionPersonnel int
	EMSUnits             int
	EMSPersonnel         int
	OtherUnits           int
	OtherPersonnel       int
}

// FireSpread is the Fire Spread dimension.
type FireSpread struct {
	ID                                  string
	FireSpread                          *string
	NoFlameSpread                       *string
	NumberOfFloorsWithMinimumDamage     *string
	NumberOfFloorsWithSignificantDamage *string
	NumberOfFloorsWithHeavyDamage       *string
	NumberOfFloorsWithExtremeDamage     *string
}

// FireOrigin is the Fire Origin dimension.
type FireOrigin struct {
	ID                                 string
	AreaOfFireOrigin                   *string
	IgnitionCause                      *string
	IgnitionFactorPrimary              *string
	IgnitionFactorSecondary            *string
	HeatSource                         *string
	ItemFirstIgnited                   *string
	HumanFactorsAssociatedWithIgnition *string
	StructureType                      *string
	StructureStatus                    *string
	FloorOfFireOrigin                  *string
}

// ExtinguishingSystem is the Extinguishing System dimension.
type ExtinguishingSystem struct {
	ID                                        string
	AutomaticExtinguishingSystemPresent       *string
	AutomaticExtinguishingSystemType          *string
	AutomaticExtinguishingSystemPerformance   *string
	AutomaticExtinguishingSystemFailureReason *string
	NumberOfSprinklerHeadsOperating           *string
}

// Fact is the fact table row linking every dimension back to one Fire Event.
type Fact struct {
	ID                     string
	LocationID             string
	DateTimeID              string
	IncidentID             string
	DetectorID             string
	SuppressionID          string
	FireSpreadID           string
	FireOriginID           string
	ExtinguishingSystemID  string
	FireFatalities         int
	FireInjuries           int
	CivilianFatalities     int
	CivilianInjuries       int
	EstimatedPropertyLoss  *string
	EstimatedContentsLoss  *string
	NumberOfAlarms         int
	ActionTakenPrimary     *string
	ActionTakenSecondary   *string
	ActionTakenOther       *string
	DetectorAlertedOccupants *string
}

// DataBundle groups one Fire Event's full star-schema decomposition.
type DataBundle struct {
	Location            Location
	DateTime            DateTime
	Incident            Incident
	Detector            Detector
	Suppression         Suppression
	FireSpread          FireSpread
	FireOrigin          FireOrigin
	ExtinguishingSystem ExtinguishingSystem
	Fact                Fact
}

// Decompose splits a Fire Event into its dimension and fact rows, generating
// dimension ids by suffixing the event's ID the same way
// original_source/models/utils/fire_event_transformation.py does
// (`fire_event.ID + "_location"`, etc.).
func Decompose(e *fireevent.FireEvent) DataBundle {
	location := Location{
		ID:                   e.ID + "_location",
		Address:              e.Address,
		City:                 e.City,
		Zipcode:              e.Zipcode,
		NeighborhoodDistrict: e.NeighborhoodDistrict,
		SupervisorDistrict:   e.SupervisorDistrict,
		Point:                e.Point,
	}

	dt := DateTime{
		ID:           e.ID + "_datetime",
		IncidentDate: e.IncidentDate,
		AlarmDtTm:    e.AlarmDtTm,
		ArrivalDtTm:  e.ArrivalDtTm,
		CloseDtTm:    e.CloseDtTm,
		DataAsOf:     e.DataAsOf,
		DataLoadedAt: e.DataLoadedAt,
	}

	incident := Incident{
		IncidentNumber:   e.IncidentNumber,
		ExposureNumber:   e.ExposureNumber,
		CallNumber:       e.CallNumber,
		Battalion:        e.Battalion,
		StationArea:      e.StationArea,
		Box:              e.Box,
		FirstUnitOnScene: e.FirstUnitOnScene,
		PrimarySituation: e.PrimarySituation,
		MutualAid:        e.MutualAid,
	}

	detector := Detector{
		ID:                    e.ID + "_detector",
		DetectorsPresent:      e.DetectorsPresent,
		DetectorType:          e.DetectorType,
		DetectorOperation:     e.DetectorOperation,
		DetectorEffectiveness: e.DetectorEffectiveness,
		DetectorFailureReason: e.DetectorFailureReason,
	}

	suppression := Suppression{
		ID:                   e.ID + "_suppression",
		SuppressionUnits:     e.SuppressionUnits,
		SuppressionPersonnel: e.SuppressionPersonnel,
		EMSUnits:             e.EMSUnits,
		EMSPersonnel:         e.EMSPersonnel,
		OtherUnits:           e.OtherUnits,
		OtherPersonnel:       e.OtherPersonnel,
	}

	fireSpread := FireSpread{
		ID:                                  e.ID + "_fire_spread",
		FireSpread:                          e.FireSpread,
		NoFlameSpread:                       e.NoFlameSpread,
		NumberOfFloorsWithMinimumDamage:     e.NumberOfFloorsWithMinimumDamage,
		NumberOfFloorsWithSignificantDamage: e.NumberOfFloorsWithSignificantDamage,
		NumberOfFloorsWithHeavyDamage:       e.NumberOfFloorsWithHeavyDamage,
		NumberOfFloorsWithExtremeDamage:     e.NumberOfFloorsWithExtremeDamage,
	}

	fireOrigin := FireOrigin{
		ID:                                 e.ID + "_fire_origin",
		AreaOfFireOrigin:                   e.AreaOfFireOrigin,
		IgnitionCause:                      e.IgnitionCause,
		IgnitionFactorPrimary:              e.IgnitionFactorPrimary,
		IgnitionFactorSecondary:            e.IgnitionFactorSecondary,
		HeatSource:                         e.HeatSource,
		ItemFirstIgnited:                   e.ItemFirstIgnited,
		HumanFactorsAssociatedWithIgnition: e.HumanFactorsAssociatedWithIgnition,
		StructureType:                      e.StructureType,
		StructureStatus:                    e.StructureStatus,
		FloorOfFireOrigin:                  e.FloorOfFireOrigin,
	}

	extinguishing := ExtinguishingSystem{
		ID:                                        e.ID + "_extinguishing_system",
		AutomaticExtinguishingSystemPresent:       e.AutomaticExtinguishingSystemPresent,
		AutomaticExtinguishingSystemType:          e.AutomaticExtinguishingSystemType,
		AutomaticExtinguishingSystemPerformance:   e.AutomaticExtinguishingSystemPerformance,
		AutomaticExtinguishingSystemFailureReason: e.AutomaticExtinguishingSystemFailureReason,
		NumberOfSprinklerHeadsOperating:           e.NumberOfSprinklerHeadsOperating,
	}

	fact := Fact{
		ID:                       e.ID,
		LocationID:               location.ID,
		DateTimeID:               dt.ID,
		IncidentID:               incident.IncidentNumber,
		DetectorID:               detector.ID,
		SuppressionID:            suppression.ID,
		FireSpreadID:             fireSpread.ID,
		FireOriginID:             fireOrigin.ID,
		ExtinguishingSystemID:    extinguishing.ID,
		FireFatalities:           e.FireFatalities,
		FireInjuries:             e.FireInjuries,
		CivilianFatalities:       e.CivilianFatalities,
		CivilianInjuries:         e.CivilianInjuries,
		EstimatedPropertyLoss:    e.EstimatedPropertyLoss,
		EstimatedContentsLoss:    e.EstimatedContentsLoss,
		NumberOfAlarms:           e.NumberOfAlarms,
		ActionTakenPrimary:       e.ActionTakenPrimary,
		ActionTakenSecondary:     e.ActionTakenSecondary,
		ActionTakenOther:         e.ActionTakenOther,
		DetectorAlertedOccupants: e.DetectorAlertedOccupants,
	}

	return DataBundle{
		Location:            location,
		DateTime:             dt,
		Incident:             incident,
		Detector:             detector,
		Suppression:          suppression,
		FireSpread:           fireSpread,
		FireOrigin:           fireOrigin,
		ExtinguishingSystem:  extinguishing,
		Fact:                 fact,
	}
}
