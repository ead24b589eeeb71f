package weather

// qweatherCodes maps QWeather icon codes.
// See https://dev.qweather.com/docs/resource/icons/
var qweatherCodes = buildCodeMap(map[Type][]string{
	Sunny:  {"100", "150"},
	Cloudy: {"101", "102", "103", "104", "151", "152", "153"},
	Rainy: {
		"300", "301", "302", "303", "304", "305", "306", "307", "308", "309",
		"310", "311", "312", "313", "314", "315", "316", "317", "318",
		"350", "351", "399",
	},
	Snowy: {
		"400", "401", "402", "403", "404", "405", "406", "407", "408", "409", "410",
		"456", "457", "499",
	},
	Foggy: {
		"500", "501", "502", "503", "504", "507", "508", "509", "510",
		"511", "512", "513", "514", "515",
		"800", "801", "802", "803", "804", "805", "806", "807", "808", "809",
		"810", "811", "812", "813",
	},
	Windy:     {"901", "902", "903", "904", "905", "906", "907", "908", "909", "910"},
	Sandstorm: {"505", "506"},
})

// openWeatherIDs maps OpenWeatherMap condition IDs.
// See https://openweathermap.org/weather-conditions
var openWeatherIDs = buildCodeMap(map[Type][]int{
	Sunny:  {800},
	Cloudy: {801, 802, 803, 804},
	Rainy: {
		300, 301, 302, 310, 311, 312, 313, 314, 321,
		500, 501, 502, 503, 504, 511, 520, 521, 522, 531,
	},
	Snowy:     {600, 601, 602, 611, 612, 613, 615, 616, 620, 621, 622},
	Foggy:     {701, 711, 721, 731, 741, 762},
	Sandstorm: {751, 761},
	Windy:     {771, 781, 200, 201, 202, 210, 211, 212, 221, 230, 231, 232},
})

func buildCodeMap[K comparable](groups map[Type][]K) map[K]Type {
	out := make(map[K]Type)
	for t, codes := range groups {
		for _, c := range codes {
			out[c] = t
		}
	}
	return out
}

// MapQWeatherCode returns the type for a QWeather icon code. Unknown codes
// read as sunny.
func MapQWeatherCode(code string) Type {
	if t, ok := qweatherCodes[code]; ok {
		return t
	}
	return Sunny
}

// MapOpenWeatherID returns the type for an OpenWeatherMap condition ID.
// Unknown IDs read as sunny.
func MapOpenWeatherID(id int) Type {
	if t, ok := openWeatherIDs[id]; ok {
		return t
	}
	return Sunny
}
