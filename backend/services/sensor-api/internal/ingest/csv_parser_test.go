package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCSVPreservesRowOrder(t *testing.T) {
	payload := "equipmentId,timestamp,value\n" +
		"STATION_1,2024-12-06T12:00:00+00:00,25.0\n" +
		"STATION_2,2024-12-06T12:00:00+00:00,30.0"

	readings, err := ParseCSV([]byte(payload))
	require.NoError(t, err)
	require.Len(t, readings, 2)

	ts := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)

	require.Equal(t, "STATION_1", readings[0].EquipmentID)
	require.True(t, ts.Equal(readings[0].Timestamp))
	require.Equal(t, 25.0, readings[0].Value)

	require.Equal(t, "STATION_2", readings[1].EquipmentID)
	require.True(t, ts.Equal(readings[1].Timestamp))
	require.Equal(t, 30.0, readings[1].Value)
}

func TestParseCSVHeaderDefinesColumnOrder(t *testing.T) {
	payload := "value,equipmentId,timestamp\r\n42.75,EQ-12345,2024-12-05T15:00:00.000Z\r\n"

	readings, err := ParseCSV([]byte(payload))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.Equal(t, "EQ-12345", readings[0].EquipmentID)
	require.Equal(t, 42.75, readings[0].Value)
	require.True(t, time.Date(2024, 12, 5, 15, 0, 0, 0, time.UTC).Equal(readings[0].Timestamp))
}

func TestParseCSVConvertsOffsetsAndNaiveTimestampsToUTC(t *testing.T) {
	payload := "equipmentId,timestamp,value\n" +
		"S1,2024-12-06T09:00:00-03:00,1\n" +
		"S1,2024-12-06T12:00:00,2\n" +
		"S1,2024-12-06 12:00:00,3\n"

	readings, err := ParseCSV([]byte(payload))
	require.NoError(t, err)
	require.Len(t, readings, 3)

	want := time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC)
	for _, r := range readings {
		require.True(t, want.Equal(r.Timestamp), r.Timestamp.String())
		require.Equal(t, time.UTC, r.Timestamp.Location())
	}
}

func TestParseCSVKeepsEquipmentIDVerbatim(t *testing.T) {
	payload := "equipmentId,timestamp,value\n" +
		"  S1 , 2024-12-06T12:00:00Z ,  25.5 \n"

	readings, err := ParseCSV([]byte(payload))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.Equal(t, "  S1 ", readings[0].EquipmentID)
	require.Equal(t, 25.5, readings[0].Value)
	require.True(t, time.Date(2024, 12, 6, 12, 0, 0, 0, time.UTC).Equal(readings[0].Timestamp))
}

func TestParseCSVAcceptsByteOrderMark(t *testing.T) {
	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("equipmentId,timestamp,value\nS1,2024-12-06T12:00:00Z,1.5\n")...)

	readings, err := ParseCSV(payload)
	require.NoError(t, err)
	require.Len(t, readings, 1)
}

func TestParseCSVRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"header only":       "equipmentId,timestamp,value\n",
		"missing column":    "equipmentId,value\nS1,1.0\n",
		"duplicate column":  "equipmentId,timestamp,value,value\nS1,2024-12-06T12:00:00Z,1,2\n",
		"non numeric value": "equipmentId,timestamp,value\nS1,2024-12-06T12:00:00Z,25.0\nS2,2024-12-06T12:00:00Z,abc\n",
		"nan value":         "equipmentId,timestamp,value\nS1,2024-12-06T12:00:00Z,NaN\n",
		"bad timestamp":     "equipmentId,timestamp,value\nS1,yesterday,1.0\n",
		"short row":         "equipmentId,timestamp,value\nS1,2024-12-06T12:00:00Z\n",
		"empty equipment":   "equipmentId,timestamp,value\n,2024-12-06T12:00:00Z,1.0\n",
		"bare quote":        "equipmentId,timestamp,value\nS\"1,2024-12-06T12:00:00Z,1.0\n",
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			readings, err := ParseCSV([]byte(payload))
			require.True(t, errors.Is(err, ErrInvalidFormat), "got %v", err)
			require.Nil(t, readings)
		})
	}
}

func TestParseCSVRejectsInvalidUTF8(t *testing.T) {
	payload := []byte("equipmentId,timestamp,value\nS\xff1,2024-12-06T12:00:00Z,1.0\n")

	_, err := ParseCSV(payload)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp(" 2024-12-06T12:00:00.250+02:00 ")
	require.NoError(t, err)
	require.True(t, time.Date(2024, 12, 6, 10, 0, 0, 250*int(time.Millisecond), time.UTC).Equal(ts))

	_, err = ParseTimestamp("06/12/2024")
	require.Error(t, err)
}
