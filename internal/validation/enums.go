package validation

// Common enum values - these MUST match DB CHECK constraints in the db package.
var (
	ValidProductStatuses    = []string{"active", "inactive"}
	ValidTaxTypes           = []string{"exclusive", "inclusive"}
	ValidBarcodeSymbologies = []string{"C128", "C39", "UPCA", "UPCE", "EAN13", "EAN8"}
	ValidRoles              = []string{"admin", "user", "readonly"}
)
