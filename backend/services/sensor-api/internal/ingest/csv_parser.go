// Package ingest turns uploaded delimited text into readings.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// ErrInvalidFormat is returned for any payload that cannot be turned into at least one reading.
var ErrInvalidFormat = errors.New("invalid csv format")

// Column names expected in the header row. Order is taken from the header.
const (
	ColumnEquipmentID = "equipmentId"
	ColumnTimestamp   = "timestamp"
	ColumnValue       = "value"
)

var requiredColumns = []string{ColumnEquipmentID, ColumnTimestamp, ColumnValue}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV decodes a whole payload. Either every row parses and at least one reading is
// produced, or an error wrapping ErrInvalidFormat is returned and no readings are.
func ParseCSV(data []byte) ([]models.Reading, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: payload is not valid utf-8", ErrInvalidFormat)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing header", ErrInvalidFormat)
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrInvalidFormat, err)
	}

	columns, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var readings []models.Reading
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		line, _ := reader.FieldPos(0)

		reading, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidFormat, line, err)
		}
		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrInvalidFormat)
	}
	return readings, nil
}

func indexHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidFormat, name)
		}
		columns[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFormat, name)
		}
	}
	return columns, nil
}

func parseRecord(record []string, columns map[string]int) (models.Reading, error) {
	equipmentID := record[columns[ColumnEquipmentID]]
	if strings.TrimSpace(equipmentID) == "" {
		return models.Reading{}, errors.New("equipmentId is empty")
	}

	rawTS := record[columns[ColumnTimestamp]]
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return models.Reading{}, fmt.Errorf("invalid timestamp %q", rawTS)
	}

	rawValue := record[columns[ColumnValue]]
	value, err := strconv.ParseFloat(strings.TrimSpace(rawValue), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return models.Reading{}, fmt.Errorf("invalid value %q", rawValue)
	}

	return models.Reading{
		EquipmentID: equipmentID,
		Timestamp:   ts,
		Value:       value,
	}, nil
}
