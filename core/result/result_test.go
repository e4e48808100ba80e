package result

import (
	"testing"

	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/history"
	"github.com/stretchr/testify/assert"
)

func sampleListResult() Result {
	h := history.New()
	h.Append(history.NewStep(0, "df", "df", stepTime(), stepTime(), 0, true, "raw", "", "LIST", 2, history.ContextSnapshot{}))
	records := []dataformat.Record{
		{"filesystem": "/dev/sda1", "use_pct": float64(42)},
		{"filesystem": "/dev/sda2", "use_pct": float64(7)},
	}
	return New(true, 0, "raw", "", records, dataformat.LIST, h)
}

func TestToFormatJSONPreservesRawOutputAndAppendsConvertStep(t *testing.T) {
	r := sampleListResult()
	converted := r.ToFormat(dataformat.JSON)

	assert.Equal(t, dataformat.JSON, converted.DataFormat)
	assert.Equal(t, r.RawOutput, converted.RawOutput)
	assert.Equal(t, r.History.Len()+1, converted.History.Len())
	assert.Equal(t, "convert", converted.History.Steps()[converted.History.Len()-1].Op)
}

func TestToFormatLeavesOriginalUnchanged(t *testing.T) {
	r := sampleListResult()
	_ = r.ToFormat(dataformat.JSON)

	assert.Equal(t, dataformat.LIST, r.DataFormat)
	assert.Equal(t, 1, r.History.Len())
}

func TestToFormatSameFormatIsNoop(t *testing.T) {
	r := sampleListResult()
	same := r.ToFormat(dataformat.LIST)
	assert.Equal(t, r.History.Len(), same.History.Len())
}

func TestToFormatUnavailableMarksFailureWithoutMutatingOriginal(t *testing.T) {
	r := sampleListResult()
	failed := r.ToFormat(dataformat.DATAFRAME)

	assert.False(t, failed.Success)
	assert.Contains(t, failed.Metadata, "conversion_error")
	assert.True(t, r.Success, "original result must be unchanged")
}

func TestExtractFieldReturnsNilForMissingKey(t *testing.T) {
	r := sampleListResult()
	values, err := r.ExtractField("nonexistent")
	assert.NoError(t, err)
	assert.Equal(t, []any{nil, nil}, values)
}

func TestExtractFieldReturnsOrderedValues(t *testing.T) {
	r := sampleListResult()
	values, err := r.ExtractField("filesystem")
	assert.NoError(t, err)
	assert.Equal(t, []any{"/dev/sda1", "/dev/sda2"}, values)
}

func TestWithMetadataDoesNotMutateReceiver(t *testing.T) {
	r := sampleListResult()
	withMeta := r.WithMetadata("cache_ttl", 120)

	assert.NotContains(t, r.Metadata, "cache_ttl")
	assert.Equal(t, 120, withMeta.Metadata["cache_ttl"])
}

func TestRoundTripListJSONListPreservesRecords(t *testing.T) {
	r := sampleListResult()
	asJSON := r.ToFormat(dataformat.JSON)
	backToList := asJSON.ToFormat(dataformat.LIST)

	assert.Equal(t, r.StructuredOutput, backToList.StructuredOutput)
	assert.Equal(t, r.RawOutput, backToList.RawOutput)
	assert.Equal(t, r.ExitCode, backToList.ExitCode)
	assert.Equal(t, r.Success, backToList.Success)
}
