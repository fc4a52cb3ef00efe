package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	plazaMitre  = Point{Lat: -38.0055, Lon: -57.5426}
	puertoMdp   = Point{Lat: -38.0453, Lon: -57.5334}
	buenosAires = Point{Lat: -34.6037, Lon: -58.3816}
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKM(plazaMitre, plazaMitre))
}

func TestDistanceSymmetric(t *testing.T) {
	assert.InDelta(t, DistanceKM(plazaMitre, puertoMdp), DistanceKM(puertoMdp, plazaMitre), 1e-9)
}

func TestDistanceKnownPairs(t *testing.T) {
	// Plaza Mitre to the port is about 4.5 km.
	km := DistanceKM(plazaMitre, puertoMdp)
	assert.InDelta(t, 4.5, km, 0.3)

	// Mar del Plata to Buenos Aires is about 385 km.
	km = DistanceKM(plazaMitre, buenosAires)
	assert.InDelta(t, 385, km, 5)
}

func TestDistancePositive(t *testing.T) {
	assert.Greater(t, DistanceKM(plazaMitre, puertoMdp), 0.0)
}

func TestBlocksConversion(t *testing.T) {
	// 87 meters is exactly one block.
	assert.InDelta(t, 1.0, Blocks(0.087), 1e-9)
	assert.InDelta(t, 2000.0/87.0, Blocks(2.0), 1e-9)
	assert.Equal(t, 0.0, Blocks(0))
}

func TestPointValid(t *testing.T) {
	assert.True(t, plazaMitre.Valid())
	assert.False(t, Point{Lat: 91, Lon: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lon: -181}.Valid())
	assert.True(t, Point{Lat: -90, Lon: 180}.Valid())
}
