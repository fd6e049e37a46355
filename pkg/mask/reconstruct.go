package mask

// Reconstructor is the contract an external reconstruction algorithm
// satisfies to consume mask artifacts. Every mask exposes Field and PSF;
// the harness holds the PSF and recovers scene estimates from measurements.
// Implementations live outside this module.
type Reconstructor interface {
	// SetData loads a single measurement to be reconstructed.
	SetData(measurement [][][]float64) error

	// Apply runs the reconstruction on the loaded measurement and returns
	// the scene estimate.
	Apply() ([][][]float64, error)

	// BatchApply reconstructs a batch of measurements in one call.
	BatchApply(measurements [][][][]float64) ([][][][]float64, error)

	// Reset clears any accumulated state so the algorithm can be reused.
	Reset()

	// ReconstructionError reports the data-fidelity error of the last
	// reconstruction.
	ReconstructionError() (float64, error)

	// PSF returns the point-spread function the algorithm was built with.
	PSF() [][][]float64
}
