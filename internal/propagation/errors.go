package propagation

import "fmt"

// InvalidElementError reports elements outside the range SGP4 can model,
// either at construction or after drag has evolved them.
type InvalidElementError struct {
	Tsince float64 // minutes since epoch; 0 for construction failures
	Reason string
}

func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("sgp4: invalid elements at %.3f min: %s", e.Tsince, e.Reason)
}

// SatelliteDecayedError reports a state whose radius is below the Earth's
// equatorial radius.
type SatelliteDecayedError struct {
	Tsince float64 // minutes since epoch
	Radius float64 // km
}

func (e *SatelliteDecayedError) Error() string {
	return fmt.Sprintf("sgp4: satellite decayed at %.3f min (radius %.3f km)", e.Tsince, e.Radius)
}

// NonConvergenceError reports that Kepler's equation did not converge.
type NonConvergenceError struct {
	Tsince     float64
	Iterations int
	Residual   float64 // last Newton step, rad
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("sgp4: kepler solution did not converge at %.3f min after %d iterations (residual %.3e)",
		e.Tsince, e.Iterations, e.Residual)
}
