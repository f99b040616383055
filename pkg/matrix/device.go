package matrix

// DeviceMatrix is the stamping surface devices see. Indices are 1-based;
// index 0 denotes ground and contributions to it are dropped.
type DeviceMatrix interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	AddComplexElement(i, j int, real, imag float64)
	AddComplexRHS(i int, real, imag float64)
}
