package servingstage

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	queue     []bus.Message
	pos       int
	committed []int64
}

func (c *fakeConsumer) Poll(ctx context.Context, timeout time.Duration) (*bus.Message, error) {
	if c.pos >= len(c.queue) {
		return nil, nil
	}
	m := c.queue[c.pos]
	m.Offset = int64(c.pos)
	c.pos++
	return &m, nil
}

func (c *fakeConsumer) Commit(ctx context.Context, msg bus.Message) error {
	c.committed = append(c.committed, msg.Offset)
	return nil
}

func (c *fakeConsumer) Close() error { return nil }

func validatedRowJSON(t *testing.T, incidentNumber, incidentDate string) []byte {
	t.Helper()
	cols := []string{
		fireevent.ColIncidentNumber, fireevent.ColExposureNumber, fireevent.ColID, fireevent.ColAddress,
		fireevent.ColIncidentDate, fireevent.ColCallNumber, fireevent.ColAlarmDtTm, fireevent.ColArrivalDtTm,
		fireevent.ColCloseDtTm, fireevent.ColCity, fireevent.ColZipcode, fireevent.ColBattalion,
		fireevent.ColStationArea, fireevent.ColBox, fireevent.ColSuppressionUnits, fireevent.ColSuppressionPersonnel,
		fireevent.ColEMSUnits, fireevent.ColEMSPersonnel, fireevent.ColOtherUnits, fireevent.ColOtherPersonnel,
		fireevent.ColFirstUnitOnScene, fireevent.ColEstimatedPropertyLoss, fireevent.ColEstimatedContentsLoss,
		fireevent.ColFireFatalities, fireevent.ColFireInjuries, fireevent.ColCivilianFatalities, fireevent.ColCivilianInjuries,
		fireevent.ColNumberOfAlarms, fireevent.ColPrimarySituation, fireevent.ColMutualAid, fireevent.ColActionTakenPrimary,
		fireevent.ColActionTakenSecondary, fireevent.ColActionTakenOther, fireevent.ColDetectorAlertedOccupants,
		fireevent.ColPropertyUse, fireevent.ColAreaOfFireOrigin, fireevent.ColIgnitionCause, fireevent.ColIgnitionFactorPrimary,
		fireevent.ColIgnitionFactorSecondary, fireevent.ColHeatSource, fireevent.ColItemFirstIgnited,
		fireevent.ColHumanFactorsAssocIgnition, fireevent.ColStructureType, fireevent.ColStructureStatus,
		fireevent.ColFloorOfFireOrigin, fireevent.ColFireSpread, fireevent.ColNoFlameSpread,
		fireevent.ColFloorsMinimumDamage, fireevent.ColFloorsSignificantDamage, fireevent.ColFloorsHeavyDamage,
		fireevent.ColFloorsExtremeDamage, fireevent.ColDetectorsPresent, fireevent.ColDetectorType,
		fireevent.ColDetectorOperation, fireevent.ColDetectorEffectiveness, fireevent.ColDetectorFailureReason,
		fireevent.ColAESPresent, fireevent.ColAESType, fireevent.ColAESPerformance, fireevent.ColAESFailureReason,
		fireevent.ColSprinklerHeadsOperating, fireevent.ColSupervisorDistrict, fireevent.ColNeighborhoodDistrict,
		fireevent.ColPoint, fireevent.ColDataAsOf, fireevent.ColDataLoadedAt,
	}
	defaults := map[string]string{
		fireevent.ColIncidentNumber:           incidentNumber,
		fireevent.ColExposureNumber:           "0",
		fireevent.ColID:                       "1",
		fireevent.ColAddress:                  "100 Market St",
		fireevent.ColIncidentDate:             incidentDate,
		fireevent.ColCallNumber:                "1",
		fireevent.ColAlarmDtTm:                incidentDate,
		fireevent.ColArrivalDtTm:              incidentDate,
		fireevent.ColCloseDtTm:                incidentDate,
		fireevent.ColCity:                     "San Francisco",
		fireevent.ColZipcode:                  "94105",
		fireevent.ColBattalion:                "B03",
		fireevent.ColStationArea:              "01",
		fireevent.ColBox:                      "1234",
		fireevent.ColSuppressionUnits:         "3",
		fireevent.ColSuppressionPersonnel:     "12",
		fireevent.ColEMSUnits:                 "1",
		fireevent.ColEMSPersonnel:             "2",
		fireevent.ColOtherUnits:               "0",
		fireevent.ColOtherPersonnel:           "0",
		fireevent.ColFirstUnitOnScene:         "E01",
		fireevent.ColEstimatedPropertyLoss:    "1000",
		fireevent.ColEstimatedContentsLoss:    "500",
		fireevent.ColFireFatalities:           "0",
		fireevent.ColFireInjuries:             "0",
		fireevent.ColCivilianFatalities:       "0",
		fireevent.ColCivilianInjuries:         "0",
		fireevent.ColNumberOfAlarms:           "1",
		fireevent.ColPrimarySituation:         "111 Building fire",
		fireevent.ColMutualAid:                "N None",
		fireevent.ColActionTakenPrimary:       "11 Extinguish",
		fireevent.ColActionTakenSecondary:     "86 Investigate",
		fireevent.ColActionTakenOther:         "93 Provide information",
		fireevent.ColDetectorAlertedOccupants: "1 Detector alerted occupants",
		fireevent.ColPropertyUse:              "419 1 or 2 family dwelling",
		fireevent.ColAreaOfFireOrigin:         "21 Kitchen",
		fireevent.ColIgnitionCause:            "2 Unintentional",
		fireevent.ColIgnitionFactorPrimary:    "50 Unspecified",
		fireevent.ColIgnitionFactorSecondary:  "50 Unspecified",
		fireevent.ColHeatSource:               "61 Spark",
		fireevent.ColItemFirstIgnited:         "55 Unspecified",
		fireevent.ColHumanFactorsAssocIgnition: "0 None",
		fireevent.ColStructureType:            "1 Enclosed building",
		fireevent.ColStructureStatus:          "1 Occupied",
		fireevent.ColFloorOfFireOrigin:        "1",
		fireevent.ColFireSpread:               "1 Confined to object",
		fireevent.ColNoFlameSpread:            "N",
		fireevent.ColFloorsMinimumDamage:      "0",
		fireevent.ColFloorsSignificantDamage:  "0",
		fireevent.ColFloorsHeavyDamage:        "0",
		fireevent.ColFloorsExtremeDamage:      "0",
		fireevent.ColDetectorsPresent:         "1 Present",
		fireevent.ColDetectorType:             "2 Smoke",
		fireevent.ColDetectorOperation:        "1 Operated",
		fireevent.ColDetectorEffectiveness:    "1 Effective",
		fireevent.ColDetectorFailureReason:    "0 None",
		fireevent.ColAESPresent:               "N",
		fireevent.ColAESType:                  "0 None",
		fireevent.ColAESPerformance:           "0 None",
		fireevent.ColAESFailureReason:         "0 None",
		fireevent.ColSprinklerHeadsOperating:  "0",
		fireevent.ColSupervisorDistrict:       "6",
		fireevent.ColNeighborhoodDistrict:     "Tenderloin",
		fireevent.ColPoint:                    "(37.78, -122.41)",
		fireevent.ColDataAsOf:                 incidentDate,
		fireevent.ColDataLoadedAt:             incidentDate,
	}
	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = defaults[c]
	}
	row := fireevent.NewRawRow(cols, vals)
	data, err := json.Marshal(row)
	require.NoError(t, err)
	return data
}

func newTestProcessor(consumer *fakeConsumer, store kvstore.Store, onDuplicate config.OnDuplicate) *Processor {
	cfg := config.ServingConfig{
		RuntimeConfig: config.RuntimeConfig{DateFormat: "01/02/2006"},
		OnDuplicate:   onDuplicate,
		KeyPrefix:     "fireevent",
		IndexID:       "fireevent_idx",
	}
	logger := log.New(os.Stderr, "", 0)
	return New(cfg, consumer, nil, store, logger)
}

func TestServingStage_StoresEventAtRevisionZero(t *testing.T) {
	store := kvstore.NewMemoryStore()
	consumer := &fakeConsumer{queue: []bus.Message{{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/15/2019")}}}
	p := newTestProcessor(consumer, store, config.OnDuplicateContinue)

	outcome, key, _, err, _ := p.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stage.OutcomeSuccess, outcome)
	assert.Equal(t, "19000001", key)

	h, err := store.HGetAll(context.Background(), "fireevent:19000001:0")
	require.NoError(t, err)
	assert.Equal(t, "B03", h["Battalion"])
}

func TestServingStage_OnDuplicateContinueSkipsSilently(t *testing.T) {
	store := kvstore.NewMemoryStore()
	payload := validatedRowJSON(t, "19000001", "08/15/2019")
	consumer := &fakeConsumer{queue: []bus.Message{
		{Key: []byte("19000001"), Value: payload},
		{Key: []byte("19000001"), Value: payload},
	}}
	p := newTestProcessor(consumer, store, config.OnDuplicateContinue)

	_, _, _, err, _ := p.ProcessOne(context.Background())
	require.NoError(t, err)
	outcome, _, _, err, _ := p.ProcessOne(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stage.OutcomeSuccess, outcome, "continue policy treats a duplicate as handled, not failed")

	keys, _ := store.ScanKeys(context.Background(), "fireevent:19000001:*")
	assert.Len(t, keys, 1)
}

func TestServingStage_OnDuplicateFailReportsNonFatalFailure(t *testing.T) {
	store := kvstore.NewMemoryStore()
	payload := validatedRowJSON(t, "19000001", "08/15/2019")
	consumer := &fakeConsumer{queue: []bus.Message{
		{Key: []byte("19000001"), Value: payload},
		{Key: []byte("19000001"), Value: payload},
	}}
	p := newTestProcessor(consumer, store, config.OnDuplicateFail)

	_, _, _, err, _ := p.ProcessOne(context.Background())
	require.NoError(t, err)
	outcome, _, _, err, fatal := p.ProcessOne(context.Background())
	assert.Equal(t, stage.OutcomeFailure, outcome)
	assert.Error(t, err)
	assert.False(t, fatal)
	assert.Equal(t, []int64{0, 1}, consumer.committed, "a duplicate-fail record is still committed so it is not replayed forever")
}

func TestServingStage_OnDuplicateReplaceOverwritesRevisionZero(t *testing.T) {
	store := kvstore.NewMemoryStore()
	consumer := &fakeConsumer{queue: []bus.Message{
		{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/15/2019")},
		{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/20/2019")},
	}}
	p := newTestProcessor(consumer, store, config.OnDuplicateReplace)

	p.ProcessOne(context.Background())
	p.ProcessOne(context.Background())

	keys, _ := store.ScanKeys(context.Background(), "fireevent:19000001:*")
	assert.Len(t, keys, 1, "replace must not create a new revision")
}

func TestServingStage_OnDuplicateVersionCreatesNewRevision(t *testing.T) {
	store := kvstore.NewMemoryStore()
	consumer := &fakeConsumer{queue: []bus.Message{
		{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/15/2019")},
		{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/20/2019")},
		{Key: []byte("19000001"), Value: validatedRowJSON(t, "19000001", "08/25/2019")},
	}}
	p := newTestProcessor(consumer, store, config.OnDuplicateVersion)

	for i := 0; i < 3; i++ {
		outcome, _, _, err, _ := p.ProcessOne(context.Background())
		require.NoError(t, err)
		require.Equal(t, stage.OutcomeSuccess, outcome)
	}

	keys, _ := store.ScanKeys(context.Background(), "fireevent:19000001:*")
	assert.Len(t, keys, 3)
	latest, err := p.latestRevision(context.Background(), p.baseKey("19000001"))
	require.NoError(t, err)
	assert.Equal(t, 2, latest)
}

func TestServingStage_IndexLifecycle(t *testing.T) {
	store := kvstore.NewMemoryStore()
	p := newTestProcessor(&fakeConsumer{}, store, config.OnDuplicateContinue)

	require.NoError(t, p.EnsureIndex(context.Background()))
	exists, err := store.IndexExists(context.Background(), "fireevent_idx")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Set(context.Background(), "fireevent:19000001:0", "x"))
	require.NoError(t, p.Teardown(context.Background()))

	exists, err = store.IndexExists(context.Background(), "fireevent_idx")
	require.NoError(t, err)
	assert.True(t, exists, "teardown recreates the index after dropping it")

	_, err = store.Get(context.Background(), "fireevent:19000001:0")
	assert.ErrorIs(t, err, kvstore.ErrNotFound, "teardown must delete every record under the key prefix")
}

func TestServingStage_NoMessageAvailableIsIdle(t *testing.T) {
	store := kvstore.NewMemoryStore()
	p := newTestProcessor(&fakeConsumer{}, store, config.OnDuplicateContinue)

	outcome, _, _, _, _ := p.ProcessOne(context.Background())
	assert.Equal(t, stage.OutcomeIdle, outcome)
}
