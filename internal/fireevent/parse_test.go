package fireevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dateFormats = []string{"01/02/2006 03:04:05 PM", "2006-01-02T15:04:05.000"}

func fullRow(overrides map[string]string) RawRow {
	base := map[string]string{
		ColIncidentNumber:           "19123456",
		ColExposureNumber:           "0",
		ColID:                       "191234560",
		ColAddress:                  "100 Market St",
		ColIncidentDate:             "08/15/2019 12:00:00 AM",
		ColCallNumber:               "1234567",
		ColAlarmDtTm:                "08/15/2019 11:45:00 AM",
		ColArrivalDtTm:              "08/15/2019 11:50:00 AM",
		ColCloseDtTm:                "08/15/2019 12:30:00 PM",
		ColCity:                     "San Francisco",
		ColZipcode:                  "94105",
		ColBattalion:                "B03",
		ColStationArea:              "01",
		ColBox:                      "1234",
		ColSuppressionUnits:         "3",
		ColSuppressionPersonnel:     "12",
		ColEMSUnits:                 "1",
		ColEMSPersonnel:             "2",
		ColOtherUnits:               "0",
		ColOtherPersonnel:           "0",
		ColFirstUnitOnScene:         "E01",
		ColEstimatedPropertyLoss:    "1000",
		ColEstimatedContentsLoss:    "500",
		ColFireFatalities:           "0",
		ColFireInjuries:             "0",
		ColCivilianFatalities:       "0",
		ColCivilianInjuries:         "0",
		ColNumberOfAlarms:           "1",
		ColPrimarySituation:         "111 Building fire",
		ColMutualAid:                "N None",
		ColActionTakenPrimary:       "11 Extinguish",
		ColActionTakenSecondary:     "86 Investigate",
		ColActionTakenOther:         "93 Provide information",
		ColDetectorAlertedOccupants: "1 Detector alerted occupants",
		ColPropertyUse:              "419 1 or 2 family dwelling",
		ColAreaOfFireOrigin:         "21 Kitchen",
		ColIgnitionCause:            "2 Unintentional",
		ColIgnitionFactorPrimary:    "50 Unspecified",
		ColIgnitionFactorSecondary:  "50 Unspecified",
		ColHeatSource:               "61 Spark",
		ColItemFirstIgnited:         "55 Unspecified",
		ColHumanFactorsAssocIgnition: "0 None",
		ColStructureType:            "1 Enclosed building",
		ColStructureStatus:          "1 Occupied",
		ColFloorOfFireOrigin:        "1",
		ColFireSpread:               "1 Confined to object",
		ColNoFlameSpread:            "N",
		ColFloorsMinimumDamage:      "0",
		ColFloorsSignificantDamage:  "0",
		ColFloorsHeavyDamage:        "0",
		ColFloorsExtremeDamage:      "0",
		ColDetectorsPresent:         "1 Present",
		ColDetectorType:             "2 Smoke",
		ColDetectorOperation:        "1 Operated",
		ColDetectorEffectiveness:    "1 Effective",
		ColDetectorFailureReason:    "0 None",
		ColAESPresent:               "N",
		ColAESType:                  "0 None",
		ColAESPerformance:           "0 None",
		ColAESFailureReason:         "0 None",
		ColSprinklerHeadsOperating:  "0",
		ColSupervisorDistrict:       "6",
		ColNeighborhoodDistrict:     "Tenderloin",
		ColPoint:                    "(37.78, -122.41)",
		ColDataAsOf:                 "2019-08-16T00:00:00.000",
		ColDataLoadedAt:             "2019-08-16T01:00:00.000",
	}
	for k, v := range overrides {
		base[k] = v
	}
	cols := make([]string, 0, len(base))
	vals := make([]string, 0, len(base))
	for k, v := range base {
		cols = append(cols, k)
		vals = append(vals, v)
	}
	return NewRawRow(cols, vals)
}

func TestParse_FullRowSucceeds(t *testing.T) {
	row := fullRow(nil)
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "19123456", e.IncidentNumber)
	assert.Equal(t, "B03", e.Battalion)
	assert.Equal(t, 3, e.SuppressionUnits)
	require.NotNil(t, e.IncidentDate)
	require.NotNil(t, e.SupervisorDistrict)
	assert.Equal(t, "6", *e.SupervisorDistrict)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	cols := []string{ColID} // only one column present, everything else missing
	row := NewRawRow(cols, []string{"abc"})
	_, err := Parse(row, dateFormats)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ColIncidentNumber, perr.Column)
}

func TestParse_UnparseableTimestamp(t *testing.T) {
	row := fullRow(map[string]string{ColIncidentDate: "not-a-date"})
	_, err := Parse(row, dateFormats)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ColIncidentDate, perr.Column)
}

func TestParse_EmptyTimestampIsNilNotError(t *testing.T) {
	row := fullRow(map[string]string{ColIncidentDate: ""})
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	assert.Nil(t, e.IncidentDate)
}

func TestParse_NonNumericIntDefaultsToZero(t *testing.T) {
	row := fullRow(map[string]string{ColSuppressionUnits: "N/A"})
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	assert.Equal(t, 0, e.SuppressionUnits)
}

func TestParse_NegativeIntDefaultsToZero(t *testing.T) {
	row := fullRow(map[string]string{ColFireFatalities: "-1"})
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	assert.Equal(t, 0, e.FireFatalities)
}

func TestParse_FirstMatchingFormatWins(t *testing.T) {
	// only the second format in dateFormats accepts this layout
	row := fullRow(map[string]string{ColIncidentDate: "2019-08-16T00:00:00.000"})
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	require.NotNil(t, e.IncidentDate)
	assert.Equal(t, 16, e.IncidentDate.Day())
}

func TestParse_OptionalEmptyStringIsNil(t *testing.T) {
	row := fullRow(map[string]string{ColBox: ""})
	e, err := Parse(row, dateFormats)
	require.NoError(t, err)
	assert.Nil(t, e.Box)
}
