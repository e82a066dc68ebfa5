package starschema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
)

func strptr(s string) *string { return &s }

func TestDecompose_DimensionIDsAreSuffixedFromEventID(t *testing.T) {
	e := &fireevent.FireEvent{
		ID:               "19000001",
		IncidentNumber:   "19000001",
		Battalion:        "B01",
		NeighborhoodDistrict: strptr("Mission"),
	}

	bundle := Decompose(e)

	assert.Equal(t, "19000001_location", bundle.Location.ID)
	assert.Equal(t, "19000001_datetime", bundle.DateTime.ID)
	assert.Equal(t, "19000001_detector", bundle.Detector.ID)
	assert.Equal(t, "19000001_suppression", bundle.Suppression.ID)
	assert.Equal(t, "19000001_fire_spread", bundle.FireSpread.ID)
	assert.Equal(t, "19000001_fire_origin", bundle.FireOrigin.ID)
	assert.Equal(t, "19000001_extinguishing_system", bundle.ExtinguishingSystem.ID)
}

func TestDecompose_FactLinksBackToEveryDimension(t *testing.T) {
	e := &fireevent.FireEvent{
		ID:             "19000002",
		IncidentNumber: "19000002",
	}

	bundle := Decompose(e)
	fact := bundle.Fact

	assert.Equal(t, e.ID, fact.ID)
	assert.Equal(t, bundle.Location.ID, fact.LocationID)
	assert.Equal(t, bundle.DateTime.ID, fact.DateTimeID)
	assert.Equal(t, e.IncidentNumber, fact.IncidentID)
	assert.Equal(t, bundle.Detector.ID, fact.DetectorID)
	assert.Equal(t, bundle.Suppression.ID, fact.SuppressionID)
	assert.Equal(t, bundle.FireSpread.ID, fact.FireSpreadID)
	assert.Equal(t, bundle.FireOrigin.ID, fact.FireOriginID)
	assert.Equal(t, bundle.ExtinguishingSystem.ID, fact.ExtinguishingSystemID)
}

func TestDecompose_ScalarCountsCarryOverUnchanged(t *testing.T) {
	e := &fireevent.FireEvent{
		ID:                   "19000003",
		IncidentNumber:       "19000003",
		FireFatalities:       1,
		FireInjuries:         2,
		CivilianFatalities:   3,
		CivilianInjuries:     4,
		NumberOfAlarms:       2,
		SuppressionUnits:     5,
		SuppressionPersonnel: 12,
		EMSUnits:             1,
		EMSPersonnel:         2,
		OtherUnits:           0,
		OtherPersonnel:       0,
	}

	bundle := Decompose(e)

	assert.Equal(t, 1, bundle.Fact.FireFatalities)
	assert.Equal(t, 2, bundle.Fact.FireInjuries)
	assert.Equal(t, 3, bundle.Fact.CivilianFatalities)
	assert.Equal(t, 4, bundle.Fact.CivilianInjuries)
	assert.Equal(t, 2, bundle.Fact.NumberOfAlarms)
	assert.Equal(t, 5, bundle.Suppression.SuppressionUnits)
	assert.Equal(t, 12, bundle.Suppression.SuppressionPersonnel)
}

func TestDecompose_OptionalPointerFieldsPreservedAsNil(t *testing.T) {
	e := &fireevent.FireEvent{
		ID:             "19000004",
		IncidentNumber: "19000004",
	}

	bundle := Decompose(e)

	assert.Nil(t, bundle.Location.NeighborhoodDistrict)
	assert.Nil(t, bundle.Location.SupervisorDistrict)
	assert.Nil(t, bundle.DateTime.IncidentDate)
	assert.Nil(t, bundle.Incident.ExposureNumber)
}

func TestDecompose_OptionalPointerFieldsCarryOverWhenPresent(t *testing.T) {
	e := &fireevent.FireEvent{
		ID:                   "19000005",
		IncidentNumber:       "19000005",
		NeighborhoodDistrict: strptr("Bayview"),
		SupervisorDistrict:   strptr("10"),
	}

	bundle := Decompose(e)

	require := assert.New(t)
	require.NotNil(bundle.Location.NeighborhoodDistrict)
	require.Equal("Bayview", *bundle.Location.NeighborhoodDistrict)
	require.NotNil(bundle.Location.SupervisorDistrict)
	require.Equal("10", *bundle.Location.SupervisorDistrict)
}
