package consts

const (
	DefaultBaseMVA   = 100.0 // System base power (MVA)
	DefaultTolerance = 1e-6  // Accepted residual, relative to the reduced injection norm
	DenseThreshold   = 64    // Reduced systems up to this size use the dense backend
	TapEpsilon       = 1e-6  // |tap-1| below this is a plain line
)
