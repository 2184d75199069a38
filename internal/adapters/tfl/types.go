package tfl

// Wire types for the TfL Unified API. Only the fields the core needs are
// decoded; everything else upstream sends is dropped at this boundary.

type stopPointResponse struct {
	Matches []stopPointMatch `json:"matches"`
}

type stopPointMatch struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
}

type stopPoint struct {
	NaptanID   string   `json:"naptanId"`
	CommonName string   `json:"commonName"`
	Indicator  string   `json:"indicator"`
	StopLetter string   `json:"stopLetter"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Distance   *float64 `json:"distance"`
	Lines      []struct {
		Name string `json:"name"`
	} `json:"lines"`
}

type stopPointsNearbyResponse struct {
	StopPoints []stopPoint `json:"stopPoints"`
}

type arrivalPrediction struct {
	ID              string `json:"id"`
	VehicleID       string `json:"vehicleId"`
	NaptanID        string `json:"naptanId"`
	LineName        string `json:"lineName"`
	DestinationName string `json:"destinationName"`
	Towards         string `json:"towards"`
	TimeToStation   int    `json:"timeToStation"`
	ExpectedArrival string `json:"expectedArrival"`
}

type vehicleReading struct {
	VehicleID string   `json:"vehicleId"`
	LineName  string   `json:"lineName"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Bearing   *float64 `json:"bearing"`
	Recorded  string   `json:"timestamp"`
}
