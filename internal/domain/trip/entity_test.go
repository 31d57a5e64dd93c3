package trip

import (
	"testing"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEco(t *testing.T) {
	electric := emission.FuelTypeElectric
	diesel := emission.FuelTypeDiesel

	assert.True(t, (&Trip{TravelMode: TravelModeDriving, FuelType: &electric}).IsEco())
	assert.True(t, (&Trip{TravelMode: TravelModeWalking}).IsEco())
	assert.False(t, (&Trip{TravelMode: TravelModeTransit, FuelType: &diesel}).IsEco())
	assert.False(t, (&Trip{TravelMode: TravelModeDriving}).IsEco())
}

func TestCreateTripRequestNormalize(t *testing.T) {
	req := CreateTripRequest{Origin: " Home ", Destination: "Office"}
	require.NoError(t, req.Normalize())
	assert.Equal(t, "Home", req.Origin)
	assert.Equal(t, TravelModeDriving, req.TravelMode)

	req = CreateTripRequest{Origin: "A", Destination: "   "}
	fe, ok := xerrors.AsFieldError(req.Normalize())
	require.True(t, ok)
	assert.Equal(t, "destination", fe.Field)

	req = CreateTripRequest{Origin: "A", Destination: "B", TravelMode: "teleport"}
	fe, ok = xerrors.AsFieldError(req.Normalize())
	require.True(t, ok)
	assert.Equal(t, "travel_mode", fe.Field)
}
