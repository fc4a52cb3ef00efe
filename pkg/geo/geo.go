package geo

import "math"

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within valid degree ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// BlockMeters is the length of a city block (cuadra) in Mar del Plata.
const BlockMeters = 87.0

// Blocks converts a distance in kilometers to city blocks.
func Blocks(km float64) float64 {
	return km * 1000.0 / BlockMeters
}

// WGS-84 ellipsoid parameters.
const (
	wgs84A = 6378137.0         // semi-major axis, meters
	wgs84B = 6356752.314245    // semi-minor axis, meters
	wgs84F = 1 / 298.257223563 // flattening
)

// DistanceKM returns the geodesic distance between two points in
// kilometers, computed with Vincenty's inverse formula on the WGS-84
// ellipsoid. For the rare near-antipodal pairs where the iteration does
// not converge it falls back to the spherical great-circle distance.
func DistanceKM(a, b Point) float64 {
	if a == b {
		return 0
	}
	if km, ok := vincenty(a, b); ok {
		return km
	}
	return haversineKM(a, b)
}

func vincenty(p1, p2 Point) (float64, bool) {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	deltaLon := (p2.Lon - p1.Lon) * math.Pi / 180

	u1 := math.Atan((1 - wgs84F) * math.Tan(lat1))
	u2 := math.Atan((1 - wgs84F) * math.Tan(lat2))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := deltaLon
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64

	for i := 0; i < 200; i++ {
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(
			(cosU2*sinLambda)*(cosU2*sinLambda) +
				(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			return 0, true // coincident points
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)

		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha == 0 {
			cos2SigmaM = 0 // equatorial line
		} else {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}

		c := wgs84F / 16 * cosSqAlpha * (4 + wgs84F*(4-3*cosSqAlpha))
		lambdaPrev := lambda
		lambda = deltaLon + (1-c)*wgs84F*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-lambdaPrev) < 1e-12 {
			uSq := cosSqAlpha * (wgs84A*wgs84A - wgs84B*wgs84B) / (wgs84B * wgs84B)
			bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
			bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
			deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4*
				(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
					bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
			return wgs84B * bigA * (sigma - deltaSigma) / 1000.0, true
		}
	}
	return 0, false
}

// haversineKM returns the great-circle distance in kilometers between
// two lat/lon points on a spherical Earth.
func haversineKM(p1, p2 Point) float64 {
	const r = 6371.0 // Earth radius in km
	phi1 := p1.Lat * math.Pi / 180
	phi2 := p2.Lat * math.Pi / 180
	dPhi := (p2.Lat - p1.Lat) * math.Pi / 180
	dLambda := (p2.Lon - p1.Lon) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return r * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
