package flights

import (
	"math"
	"sort"
	"strings"

	"voyager/models"
)

// Static airport table used by the mock backend. Tier 1 is a major hub,
// tier 4 a small regional field; tiers bias keyword ranking and hub routing.
var airportTable = []models.Airport{
	{IATA: "ATL", Name: "Hartsfield-Jackson Atlanta International", City: "Atlanta", Country: "US", Latitude: 33.6407, Longitude: -84.4277, Tier: 1},
	{IATA: "LAX", Name: "Los Angeles International", City: "Los Angeles", Country: "US", Latitude: 33.9416, Longitude: -118.4085, Tier: 1},
	{IATA: "ORD", Name: "O'Hare International", City: "Chicago", Country: "US", Latitude: 41.9786, Longitude: -87.9048, Tier: 1},
	{IATA: "DFW", Name: "Dallas/Fort Worth International", City: "Dallas", Country: "US", Latitude: 32.8998, Longitude: -97.0403, Tier: 1},
	{IATA: "DEN", Name: "Denver International", City: "Denver", Country: "US", Latitude: 39.8561, Longitude: -104.6737, Tier: 1},
	{IATA: "JFK", Name: "John F. Kennedy International", City: "New York", Country: "US", Latitude: 40.6413, Longitude: -73.7781, Tier: 1},
	{IATA: "SFO", Name: "San Francisco International", City: "San Francisco", Country: "US", Latitude: 37.6213, Longitude: -122.3790, Tier: 1},
	{IATA: "SEA", Name: "Seattle-Tacoma International", City: "Seattle", Country: "US", Latitude: 47.4502, Longitude: -122.3088, Tier: 1},
	{IATA: "LAS", Name: "Harry Reid International", City: "Las Vegas", Country: "US", Latitude: 36.0840, Longitude: -115.1537, Tier: 1},
	{IATA: "MCO", Name: "Orlando International", City: "Orlando", Country: "US", Latitude: 28.4312, Longitude: -81.3081, Tier: 1},
	{IATA: "EWR", Name: "Newark Liberty International", City: "Newark", Country: "US", Latitude: 40.6895, Longitude: -74.1745, Tier: 1},
	{IATA: "CLT", Name: "Charlotte Douglas International", City: "Charlotte", Country: "US", Latitude: 35.2144, Longitude: -80.9473, Tier: 1},
	{IATA: "PHX", Name: "Phoenix Sky Harbor International", City: "Phoenix", Country: "US", Latitude: 33.4373, Longitude: -112.0078, Tier: 1},
	{IATA: "IAH", Name: "George Bush Intercontinental", City: "Houston", Country: "US", Latitude: 29.9844, Longitude: -95.3414, Tier: 1},
	{IATA: "MIA", Name: "Miami International", City: "Miami", Country: "US", Latitude: 25.7959, Longitude: -80.2870, Tier: 1},
	{IATA: "BOS", Name: "Logan International", City: "Boston", Country: "US", Latitude: 42.3656, Longitude: -71.0096, Tier: 1},
	{IATA: "MSP", Name: "Minneapolis-Saint Paul International", City: "Minneapolis", Country: "US", Latitude: 44.8848, Longitude: -93.2223, Tier: 1},
	{IATA: "FLL", Name: "Fort Lauderdale-Hollywood International", City: "Fort Lauderdale", Country: "US", Latitude: 26.0742, Longitude: -80.1506, Tier: 2},
	{IATA: "DTW", Name: "Detroit Metropolitan Wayne County", City: "Detroit", Country: "US", Latitude: 42.2162, Longitude: -83.3554, Tier: 1},
	{IATA: "PHL", Name: "Philadelphia International", City: "Philadelphia", Country: "US", Latitude: 39.8744, Longitude: -75.2424, Tier: 2},
	{IATA: "LGA", Name: "LaGuardia", City: "New York", Country: "US", Latitude: 40.7769, Longitude: -73.8740, Tier: 2},
	{IATA: "SLC", Name: "Salt Lake City International", City: "Salt Lake City", Country: "US", Latitude: 40.7899, Longitude: -111.9791, Tier: 2},
	{IATA: "BWI", Name: "Baltimore/Washington International", City: "Baltimore", Country: "US", Latitude: 39.1774, Longitude: -76.6684, Tier: 2},
	{IATA: "DCA", Name: "Ronald Reagan Washington National", City: "Washington", Country: "US", Latitude: 38.8512, Longitude: -77.0402, Tier: 2},
	{IATA: "IAD", Name: "Washington Dulles International", City: "Washington", Country: "US", Latitude: 38.9531, Longitude: -77.4565, Tier: 2},
	{IATA: "SAN", Name: "San Diego International", City: "San Diego", Country: "US", Latitude: 32.7338, Longitude: -117.1933, Tier: 2},
	{IATA: "TPA", Name: "Tampa International", City: "Tampa", Country: "US", Latitude: 27.9755, Longitude: -82.5332, Tier: 2},
	{IATA: "AUS", Name: "Austin-Bergstrom International", City: "Austin", Country: "US", Latitude: 30.1975, Longitude: -97.6664, Tier: 2},
	{IATA: "BNA", Name: "Nashville International", City: "Nashville", Country: "US", Latitude: 36.1263, Longitude: -86.6774, Tier: 2},
	{IATA: "MDW", Name: "Chicago Midway International", City: "Chicago", Country: "US", Latitude: 41.7868, Longitude: -87.7522, Tier: 2},
	{IATA: "HNL", Name: "Daniel K. Inouye International", City: "Honolulu", Country: "US", Latitude: 21.3187, Longitude: -157.9225, Tier: 2},
	{IATA: "DAL", Name: "Dallas Love Field", City: "Dallas", Country: "US", Latitude: 32.8471, Longitude: -96.8518, Tier: 2},
	{IATA: "PDX", Name: "Portland International", City: "Portland", Country: "US", Latitude: 45.5898, Longitude: -122.5951, Tier: 2},
	{IATA: "STL", Name: "St. Louis Lambert International", City: "St. Louis", Country: "US", Latitude: 38.7500, Longitude: -90.3700, Tier: 2},
	{IATA: "RDU", Name: "Raleigh-Durham International", City: "Raleigh", Country: "US", Latitude: 35.8801, Longitude: -78.7880, Tier: 2},
	{IATA: "HOU", Name: "William P. Hobby", City: "Houston", Country: "US", Latitude: 29.6454, Longitude: -95.2789, Tier: 2},
	{IATA: "SMF", Name: "Sacramento International", City: "Sacramento", Country: "US", Latitude: 38.6954, Longitude: -121.5908, Tier: 3},
	{IATA: "MSY", Name: "Louis Armstrong New Orleans International", City: "New Orleans", Country: "US", Latitude: 29.9934, Longitude: -90.2580, Tier: 2},
	{IATA: "SJC", Name: "Norman Y. Mineta San Jose International", City: "San Jose", Country: "US", Latitude: 37.3639, Longitude: -121.9289, Tier: 3},
	{IATA: "SNA", Name: "John Wayne", City: "Santa Ana", Country: "US", Latitude: 33.6762, Longitude: -117.8675, Tier: 3},
	{IATA: "MCI", Name: "Kansas City International", City: "Kansas City", Country: "US", Latitude: 39.2976, Longitude: -94.7139, Tier: 3},
	{IATA: "OAK", Name: "Oakland International", City: "Oakland", Country: "US", Latitude: 37.7214, Longitude: -122.2208, Tier: 3},
	{IATA: "CLE", Name: "Cleveland Hopkins International", City: "Cleveland", Country: "US", Latitude: 41.4117, Longitude: -81.8498, Tier: 3},
	{IATA: "IND", Name: "Indianapolis International", City: "Indianapolis", Country: "US", Latitude: 39.7173, Longitude: -86.2944, Tier: 3},
	{IATA: "PIT", Name: "Pittsburgh International", City: "Pittsburgh", Country: "US", Latitude: 40.4915, Longitude: -80.2329, Tier: 3},
	{IATA: "CVG", Name: "Cincinnati/Northern Kentucky International", City: "Cincinnati", Country: "US", Latitude: 39.0488, Longitude: -84.6678, Tier: 3},
	{IATA: "CMH", Name: "John Glenn Columbus International", City: "Columbus", Country: "US", Latitude: 39.9980, Longitude: -82.8919, Tier: 3},
	{IATA: "SAT", Name: "San Antonio International", City: "San Antonio", Country: "US", Latitude: 29.5337, Longitude: -98.4698, Tier: 3},
	{IATA: "TUL", Name: "Tulsa International", City: "Tulsa", Country: "US", Latitude: 36.1984, Longitude: -95.8881, Tier: 3},
	{IATA: "OKC", Name: "Will Rogers World", City: "Oklahoma City", Country: "US", Latitude: 35.3931, Longitude: -97.6007, Tier: 3},
	{IATA: "OMA", Name: "Eppley Airfield", City: "Omaha", Country: "US", Latitude: 41.3032, Longitude: -95.8941, Tier: 3},
	{IATA: "ABQ", Name: "Albuquerque International Sunport", City: "Albuquerque", Country: "US", Latitude: 35.0402, Longitude: -106.6091, Tier: 3},
	{IATA: "BUF", Name: "Buffalo Niagara International", City: "Buffalo", Country: "US", Latitude: 42.9405, Longitude: -78.7322, Tier: 3},
	{IATA: "JAX", Name: "Jacksonville International", City: "Jacksonville", Country: "US", Latitude: 30.4941, Longitude: -81.6879, Tier: 3},
	{IATA: "RIC", Name: "Richmond International", City: "Richmond", Country: "US", Latitude: 37.5052, Longitude: -77.3197, Tier: 3},
	{IATA: "MEM", Name: "Memphis International", City: "Memphis", Country: "US", Latitude: 35.0424, Longitude: -89.9767, Tier: 3},
	{IATA: "BOI", Name: "Boise Airport", City: "Boise", Country: "US", Latitude: 43.5644, Longitude: -116.2228, Tier: 3},
	{IATA: "ANC", Name: "Ted Stevens Anchorage International", City: "Anchorage", Country: "US", Latitude: 61.1743, Longitude: -149.9962, Tier: 3},
	{IATA: "LIT", Name: "Bill and Hillary Clinton National", City: "Little Rock", Country: "US", Latitude: 34.7294, Longitude: -92.2243, Tier: 4},
	{IATA: "DSM", Name: "Des Moines International", City: "Des Moines", Country: "US", Latitude: 41.5340, Longitude: -93.6631, Tier: 4},
	{IATA: "ICT", Name: "Wichita Dwight D. Eisenhower National", City: "Wichita", Country: "US", Latitude: 37.6499, Longitude: -97.4331, Tier: 4},
	{IATA: "GEG", Name: "Spokane International", City: "Spokane", Country: "US", Latitude: 47.6199, Longitude: -117.5338, Tier: 4},
	{IATA: "ELP", Name: "El Paso International", City: "El Paso", Country: "US", Latitude: 31.8072, Longitude: -106.3776, Tier: 4},
	{IATA: "TUS", Name: "Tucson International", City: "Tucson", Country: "US", Latitude: 32.1161, Longitude: -110.9410, Tier: 4},
	{IATA: "RNO", Name: "Reno-Tahoe International", City: "Reno", Country: "US", Latitude: 39.4991, Longitude: -119.7681, Tier: 4},
	{IATA: "SDF", Name: "Louisville Muhammad Ali International", City: "Louisville", Country: "US", Latitude: 38.1744, Longitude: -85.7360, Tier: 4},
	{IATA: "GRR", Name: "Gerald R. Ford International", City: "Grand Rapids", Country: "US", Latitude: 42.8808, Longitude: -85.5228, Tier: 4},
	{IATA: "MKE", Name: "Milwaukee Mitchell International", City: "Milwaukee", Country: "US", Latitude: 42.9472, Longitude: -87.8966, Tier: 3},
	{IATA: "LHR", Name: "Heathrow", City: "London", Country: "GB", Latitude: 51.4700, Longitude: -0.4543, Tier: 1},
	{IATA: "CDG", Name: "Charles de Gaulle", City: "Paris", Country: "FR", Latitude: 49.0097, Longitude: 2.5479, Tier: 1},
	{IATA: "FRA", Name: "Frankfurt am Main", City: "Frankfurt", Country: "DE", Latitude: 50.0379, Longitude: 8.5622, Tier: 1},
	{IATA: "AMS", Name: "Amsterdam Schiphol", City: "Amsterdam", Country: "NL", Latitude: 52.3105, Longitude: 4.7683, Tier: 1},
	{IATA: "MAD", Name: "Adolfo Suárez Madrid-Barajas", City: "Madrid", Country: "ES", Latitude: 40.4722, Longitude: -3.5608, Tier: 1},
	{IATA: "FCO", Name: "Leonardo da Vinci-Fiumicino", City: "Rome", Country: "IT", Latitude: 41.8003, Longitude: 12.2389, Tier: 2},
	{IATA: "IST", Name: "Istanbul Airport", City: "Istanbul", Country: "TR", Latitude: 41.2753, Longitude: 28.7519, Tier: 1},
	{IATA: "DXB", Name: "Dubai International", City: "Dubai", Country: "AE", Latitude: 25.2532, Longitude: 55.3657, Tier: 1},
	{IATA: "DOH", Name: "Hamad International", City: "Doha", Country: "QA", Latitude: 25.2731, Longitude: 51.6081, Tier: 1},
	{IATA: "SIN", Name: "Singapore Changi", City: "Singapore", Country: "SG", Latitude: 1.3644, Longitude: 103.9915, Tier: 1},
	{IATA: "HKG", Name: "Hong Kong International", City: "Hong Kong", Country: "HK", Latitude: 22.3080, Longitude: 113.9185, Tier: 1},
	{IATA: "NRT", Name: "Narita International", City: "Tokyo", Country: "JP", Latitude: 35.7719, Longitude: 140.3929, Tier: 1},
	{IATA: "HND", Name: "Tokyo Haneda", City: "Tokyo", Country: "JP", Latitude: 35.5494, Longitude: 139.7798, Tier: 1},
	{IATA: "ICN", Name: "Incheon International", City: "Seoul", Country: "KR", Latitude: 37.4602, Longitude: 126.4407, Tier: 1},
	{IATA: "PEK", Name: "Beijing Capital International", City: "Beijing", Country: "CN", Latitude: 40.0799, Longitude: 116.6031, Tier: 1},
	{IATA: "PVG", Name: "Shanghai Pudong International", City: "Shanghai", Country: "CN", Latitude: 31.1443, Longitude: 121.8083, Tier: 1},
	{IATA: "SYD", Name: "Sydney Kingsford Smith", City: "Sydney", Country: "AU", Latitude: -33.9399, Longitude: 151.1753, Tier: 1},
	{IATA: "MEL", Name: "Melbourne Airport", City: "Melbourne", Country: "AU", Latitude: -37.6690, Longitude: 144.8410, Tier: 2},
	{IATA: "YYZ", Name: "Toronto Pearson International", City: "Toronto", Country: "CA", Latitude: 43.6777, Longitude: -79.6248, Tier: 1},
	{IATA: "YVR", Name: "Vancouver International", City: "Vancouver", Country: "CA", Latitude: 49.1939, Longitude: -123.1844, Tier: 2},
	{IATA: "MEX", Name: "Benito Juárez International", City: "Mexico City", Country: "MX", Latitude: 19.4363, Longitude: -99.0721, Tier: 1},
	{IATA: "GRU", Name: "São Paulo/Guarulhos International", City: "São Paulo", Country: "BR", Latitude: -23.4356, Longitude: -46.4731, Tier: 1},
	{IATA: "EZE", Name: "Ministro Pistarini International", City: "Buenos Aires", Country: "AR", Latitude: -34.8222, Longitude: -58.5358, Tier: 2},
	{IATA: "BOG", Name: "El Dorado International", City: "Bogotá", Country: "CO", Latitude: 4.7016, Longitude: -74.1469, Tier: 2},
	{IATA: "LIM", Name: "Jorge Chávez International", City: "Lima", Country: "PE", Latitude: -12.0219, Longitude: -77.1143, Tier: 2},
	{IATA: "SCL", Name: "Arturo Merino Benítez International", City: "Santiago", Country: "CL", Latitude: -33.3930, Longitude: -70.7858, Tier: 2},
	{IATA: "JNB", Name: "O. R. Tambo International", City: "Johannesburg", Country: "ZA", Latitude: -26.1392, Longitude: 28.2460, Tier: 2},
	{IATA: "CAI", Name: "Cairo International", City: "Cairo", Country: "EG", Latitude: 30.1219, Longitude: 31.4056, Tier: 2},
	{IATA: "DEL", Name: "Indira Gandhi International", City: "Delhi", Country: "IN", Latitude: 28.5562, Longitude: 77.1000, Tier: 1},
	{IATA: "BOM", Name: "Chhatrapati Shivaji Maharaj International", City: "Mumbai", Country: "IN", Latitude: 19.0896, Longitude: 72.8656, Tier: 1},
}

// Connection points for one-stop itineraries.
var hubCodes = []string{
	"ATL", "ORD", "DFW", "DEN", "CLT", "IAH", "MSP", "DTW", "SLC", "PHX",
	"SEA", "EWR", "LHR", "CDG", "FRA", "DXB", "SIN", "HND", "YYZ",
}

type airline struct {
	Code string
	Name string
	Hubs []string
}

var airlines = []airline{
	{Code: "AA", Name: "American Airlines", Hubs: []string{"DFW", "CLT", "ORD", "MIA", "PHX", "PHL", "DCA"}},
	{Code: "DL", Name: "Delta Air Lines", Hubs: []string{"ATL", "MSP", "DTW", "SLC", "SEA", "JFK", "BOS"}},
	{Code: "UA", Name: "United Airlines", Hubs: []string{"ORD", "DEN", "IAH", "EWR", "SFO", "IAD"}},
	{Code: "WN", Name: "Southwest Airlines", Hubs: []string{"DAL", "MDW", "HOU", "PHX", "LAS", "BWI"}},
	{Code: "AS", Name: "Alaska Airlines", Hubs: []string{"SEA", "PDX", "ANC"}},
	{Code: "B6", Name: "JetBlue Airways", Hubs: []string{"JFK", "BOS", "FLL"}},
	{Code: "F9", Name: "Frontier Airlines", Hubs: []string{"DEN"}},
	{Code: "NK", Name: "Spirit Airlines", Hubs: []string{"FLL", "DTW"}},
	{Code: "BA", Name: "British Airways", Hubs: []string{"LHR"}},
	{Code: "LH", Name: "Lufthansa", Hubs: []string{"FRA"}},
	{Code: "AF", Name: "Air France", Hubs: []string{"CDG"}},
	{Code: "KL", Name: "KLM", Hubs: []string{"AMS"}},
	{Code: "EK", Name: "Emirates", Hubs: []string{"DXB"}},
	{Code: "QR", Name: "Qatar Airways", Hubs: []string{"DOH"}},
	{Code: "SQ", Name: "Singapore Airlines", Hubs: []string{"SIN"}},
	{Code: "NH", Name: "All Nippon Airways", Hubs: []string{"HND", "NRT"}},
	{Code: "AC", Name: "Air Canada", Hubs: []string{"YYZ", "YVR"}},
	{Code: "AM", Name: "Aeroméxico", Hubs: []string{"MEX"}},
}

var airportsByIATA = func() map[string]models.Airport {
	m := make(map[string]models.Airport, len(airportTable))
	for _, a := range airportTable {
		m[a.IATA] = a
	}
	return m
}()

// AirportByIATA looks up one airport in the static table.
func AirportByIATA(code string) (models.Airport, bool) {
	a, ok := airportsByIATA[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// AirlineName resolves a carrier code for voice summaries; unknown codes
// read back as the code itself.
func AirlineName(code string) string {
	for _, a := range airlines {
		if a.Code == code {
			return a.Name
		}
	}
	return code
}

// matchAirports filters the table by keyword against city, name, or code.
func matchAirports(keyword string) []models.Airport {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return nil
	}
	var out []models.Airport
	for _, a := range airportTable {
		if strings.EqualFold(a.IATA, kw) ||
			strings.Contains(strings.ToLower(a.City), kw) ||
			strings.Contains(strings.ToLower(a.Name), kw) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Tier < out[j].Tier })
	return out
}

const earthRadiusMiles = 3958.8

// haversineMiles is the great-circle distance between two coordinates.
func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
