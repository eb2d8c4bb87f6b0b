package domain

import "math"

// HealthCenter is a referral facility attached to an LGA, shown on the
// dashboard map and read out in elevated advisories.
type HealthCenter struct {
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Recommendation string  `json:"recommendation"`
}

// DefaultRecommendation is used when no LGA-specific facility is known.
const DefaultRecommendation = "Please visit the nearest primary health center immediately for a check-up. Stay safe."

var healthCenters = map[string]HealthCenter{
	"kano": {
		Name:           "Kano General Hospital",
		Address:        "Bompai Road, Kano",
		Lat:            12.0022,
		Lon:            8.5287,
		Recommendation: "Please visit Kano General Hospital immediately. Cover your food and water to prevent Lassa fever.",
	},
	"lagos": {
		Name:           "Lagos Island Maternity Hospital",
		Address:        "Campbell Street, Lagos",
		Lat:            6.4520,
		Lon:            3.4001,
		Recommendation: "Please visit Lagos Island Maternity Hospital. Boil your water before drinking to prevent Cholera.",
	},
	"abuja": {
		Name:           "Asokoro District Hospital",
		Address:        "Binji Garden, Abuja",
		Lat:            9.0435,
		Lon:            7.5145,
		Recommendation: "Please visit Asokoro District Hospital. Sleep under a treated mosquito net to prevent Malaria.",
	},
	"benue": {
		Name:           "Federal Medical Centre, Makurdi",
		Address:        "Makurdi, Benue",
		Lat:            7.7322,
		Lon:            8.5391,
		Recommendation: "Please visit Federal Medical Centre, Makurdi. Dispose of waste properly to keep rats away.",
	},
	"sokoto": {
		Name:           "Usmanu Danfodiyo University Teaching Hospital",
		Address:        "Sokoto",
		Lat:            13.0622,
		Lon:            5.2339,
		Recommendation: "Please visit UDUTH Sokoto. Use insect repellent and wear long sleeves.",
	},
	"kaduna": {
		Name:           "Barau Dikko Teaching Hospital",
		Address:        "Lafia Road, Kaduna",
		Lat:            10.5105,
		Lon:            7.4165,
		Recommendation: "Please visit Barau Dikko Teaching Hospital. Maintain strict personal hygiene.",
	},
	"maiduguri": {
		Name:           "State Specialist Hospital, Maiduguri",
		Address:        "Maiduguri, Borno",
		Lat:            11.8333,
		Lon:            13.1500,
		Recommendation: "Please visit State Specialist Hospital. Ensure your drinking water is chlorinated.",
	},
	"enugu": {
		Name:           "Enugu State University Teaching Hospital",
		Address:        "Parklane, Enugu",
		Lat:            6.4413,
		Lon:            7.5029,
		Recommendation: "Clear stagnant water around your home to prevent mosquito breeding.",
	},
}

// HealthCenterFor returns the facility registered for an LGA.
func HealthCenterFor(region string) (HealthCenter, bool) {
	hc, ok := healthCenters[NormalizeRegion(region)]
	return hc, ok
}

// NearestHealthCenter returns the facility closest to the given coordinate
// by great-circle distance. ok is false only when the registry is empty.
func NearestHealthCenter(c Coordinate) (HealthCenter, bool) {
	var (
		nearest HealthCenter
		minKm   = math.Inf(1)
		found   bool
	)
	for _, hc := range healthCenters {
		d := haversineKm(c.Lat, c.Lon, hc.Lat, hc.Lon)
		if d < minKm {
			minKm = d
			nearest = hc
			found = true
		}
	}
	return nearest, found
}

// haversineKm computes the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
