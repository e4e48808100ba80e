// Package dataformat implements the DataFormatConverter: conversion of a
// command's structured output between LIST, TABLE, JSON, DATAFRAME, and
// NDARRAY, with LIST as the canonical interchange hub (spec.md §4.6).
package dataformat

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mancerhq/mancer/core/mcerrors"
)

// Format identifies one of the five recognized structured-output shapes.
type Format string

const (
	LIST      Format = "LIST"
	TABLE     Format = "TABLE"
	JSON      Format = "JSON"
	DATAFRAME Format = "DATAFRAME"
	NDARRAY   Format = "NDARRAY"
)

// Record is one row of the canonical LIST form: a mapping of column name
// to scalar value (string | float64 | bool | nil).
type Record map[string]any

// Table is the tabular rendering of a LIST: ordered column names plus
// one row slice per record, in record order.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Convert transforms records (already in canonical LIST form) into
// target. Every path other than LIST->LIST routes through this function;
// TABLE and JSON are always available, DATAFRAME and NDARRAY require an
// external collaborator that this pack does not wire (spec.md §4.6),
// so those two always fail: with ConversionLossy for NDARRAY records
// whose columns mix types, with ConversionUnavailable otherwise.
func Convert(records []Record, target Format) (any, error) {
	switch target {
	case LIST:
		return records, nil
	case TABLE:
		return toTable(records), nil
	case JSON:
		return toJSON(records)
	case DATAFRAME:
		return nil, mcerrors.New(mcerrors.ConversionUnavailable,
			"DATAFRAME conversion requires an external dataframe library, none is available")
	case NDARRAY:
		return toNDArray(records)
	default:
		return nil, mcerrors.New(mcerrors.ConversionUnavailable, fmt.Sprintf("unknown target format %q", target))
	}
}

// toTable collects the union of keys across records, sorted for
// determinism, then projects each record onto that column order. Missing
// keys in a given record render as nil.
func toTable(records []Record) Table {
	colSet := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(colSet))
	for k := range colSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]any, 0, len(records))
	for _, r := range records {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = r[c]
		}
		rows = append(rows, row)
	}
	return Table{Columns: columns, Rows: rows}
}

// toJSON marshals records as a JSON array string.
func toJSON(records []Record) (string, error) {
	buf, err := json.Marshal(records)
	if err != nil {
		return "", mcerrors.Wrap(mcerrors.ConversionUnavailable, "failed to marshal records to JSON", err)
	}
	return string(buf), nil
}

// toNDArray requires every record to share the same columns and every
// column to hold a single scalar type (spec.md §4.6: "homogeneously
// typed columns required for NDARRAY; heterogeneous records fail with
// ConversionLossy"). It never returns a matrix: NDArray itself (typed,
// contiguous) still needs a numerics library this pack does not have,
// so even the homogeneous path reports ConversionUnavailable once shape
// validation succeeds.
func toNDArray(records []Record) (any, error) {
	if len(records) == 0 {
		return nil, mcerrors.New(mcerrors.ConversionUnavailable, "no records to convert to NDARRAY")
	}
	table := toTable(records)
	for _, col := range table.Columns {
		var kind string
		for _, row := range table.Rows {
			for i, c := range table.Columns {
				if c != col {
					continue
				}
				k := scalarKind(row[i])
				if kind == "" {
					kind = k
					continue
				}
				if kind != k {
					return nil, mcerrors.New(mcerrors.ConversionLossy,
						fmt.Sprintf("column %q mixes types %s and %s, cannot form a homogeneous NDARRAY", col, kind, k))
				}
			}
		}
	}
	return nil, mcerrors.New(mcerrors.ConversionUnavailable,
		"NDARRAY conversion requires an external numeric array library, none is available")
}

func scalarKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case float64, float32, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// RecordCount reports how many rows a converted structured payload
// holds, used to populate ExecutionStep.StructuredSummary without
// retaining the payload itself.
func RecordCount(structured any) int {
	switch v := structured.(type) {
	case []Record:
		return len(v)
	case Table:
		return len(v.Rows)
	default:
		return 0
	}
}

// FromJSON parses a JSON array of objects back into canonical LIST
// records, for the reverse direction of Convert(records, JSON).
func FromJSON(raw string) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, mcerrors.Wrap(mcerrors.ConversionUnavailable, "failed to unmarshal JSON into records", err)
	}
	return records, nil
}

// FromTable converts a Table back into canonical LIST records.
func FromTable(t Table) []Record {
	records := make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(Record, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}
