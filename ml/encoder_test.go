package ml

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLabelEncoderSortsClasses(t *testing.T) {
	enc := FitLabelEncoder([]string{"Wheat", "Maize", "Wheat", "Barley"})
	assert.Equal(t, []string{"Barley", "Maize", "Wheat"}, enc.Classes())

	code, ok := enc.Encode("Wheat")
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	_, ok = enc.Encode("Quinoa")
	assert.False(t, ok)
}

func TestLabelEncoderJSONIsClassList(t *testing.T) {
	var encoders map[string]*LabelEncoder
	require.NoError(t, json.Unmarshal([]byte(`{"Soil":["Clayey","Loamy","Sandy"]}`), &encoders))

	code, ok := encoders["Soil"].Encode("Sandy")
	assert.True(t, ok)
	assert.Equal(t, 2, code)

	payload, err := json.Marshal(encoders["Soil"])
	require.NoError(t, err)
	assert.JSONEq(t, `["Clayey","Loamy","Sandy"]`, string(payload))
}
