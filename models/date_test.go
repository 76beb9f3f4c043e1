package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"hrportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var d models.Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29"`), &d))
	assert.Equal(t, "2024-02-29", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-02-29"`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`"2024-02-29T15:04:05Z"`), &d))
	assert.Equal(t, "2024-02-29", d.String())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.True(t, d.IsZero())
	out, err = json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	assert.Error(t, json.Unmarshal([]byte(`"29/02/2024"`), &d))
}

func TestDateScanValue(t *testing.T) {
	var d models.Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 1, 13, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-01", d.String())

	require.NoError(t, d.Scan("2024-05-02"))
	assert.Equal(t, "2024-05-02", d.String())

	require.NoError(t, d.Scan([]byte("2024-05-03 00:00:00+00:00")))
	assert.Equal(t, "2024-05-03", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-03", v)

	require.NoError(t, d.Scan(nil))
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestDateArithmetic(t *testing.T) {
	d := models.NewDate(2024, time.December, 31)
	assert.Equal(t, "2025-01-01", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
}
