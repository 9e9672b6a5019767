package senml

// knownUnits is the set of unit symbols the compliance checker accepts:
// SI base and derived units plus the common sensor units seen in the field.
var knownUnits = map[string]string{
	// SI base
	"m":   "meter",
	"kg":  "kilogram",
	"g":   "gram",
	"s":   "second",
	"A":   "ampere",
	"K":   "kelvin",
	"cd":  "candela",
	"mol": "mole",

	// SI derived
	"Hz":  "hertz",
	"rad": "radian",
	"sr":  "steradian",
	"N":   "newton",
	"Pa":  "pascal",
	"J":   "joule",
	"W":   "watt",
	"C":   "coulomb",
	"V":   "volt",
	"F":   "farad",
	"Ohm": "ohm",
	"S":   "siemens",
	"Wb":  "weber",
	"T":   "tesla",
	"H":   "henry",
	"lm":  "lumen",
	"lx":  "lux",
	"Bq":  "becquerel",
	"Gy":  "gray",
	"Sv":  "sievert",
	"kat": "katal",

	// Dimensions and rates
	"m2":    "square meter",
	"m3":    "cubic meter",
	"l":     "liter",
	"m/s":   "meter per second",
	"m/s2":  "meter per square second",
	"m3/s":  "cubic meter per second",
	"l/s":   "liter per second",
	"W/m2":  "watt per square meter",
	"cd/m2": "candela per square meter",

	// Data
	"bit":   "bit",
	"bit/s": "bit per second",

	// Sensor conventions
	"degC":  "degree Celsius",
	"degF":  "degree Fahrenheit",
	"lat":   "degrees latitude",
	"lon":   "degrees longitude",
	"pH":    "pH acidity",
	"dB":    "decibel",
	"dBW":   "decibel relative to 1 W",
	"Bspl":  "sound pressure level",
	"count": "counter value",
	"%RH":   "relative humidity",
	"%EL":   "remaining battery level",
	"beat":  "heart beats",
	"beats": "heart beats total",
	"S/m":   "siemens per meter",
}

// KnownUnit reports whether symbol resolves to a known unit.
func KnownUnit(symbol string) bool {
	_, ok := knownUnits[symbol]
	return ok
}

// UnitName returns the human-readable name of a unit symbol.
func UnitName(symbol string) (string, bool) {
	name, ok := knownUnits[symbol]
	return name, ok
}
