package geo

import "sync"

// HeadingStatus distinguishes why a heading may be unusable. A zero heading
// with status HeadingUnknown must never be read as pointing north.
type HeadingStatus int

const (
	HeadingUnknown HeadingStatus = iota
	HeadingOK
	HeadingUnsupported
	HeadingPermissionDenied
)

func (s HeadingStatus) String() string {
	switch s {
	case HeadingOK:
		return "ok"
	case HeadingUnsupported:
		return "unsupported"
	case HeadingPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Compass caches the latest device heading pushed by an external orientation
// feed. Updates are last-write-wins: high-frequency or out-of-order sensor
// events simply overwrite the previous value, no queueing.
//
// Vendor-specific compass values (platforms that report an inverted or
// shifted angle) go through the same normalization as generic ones — both
// sources are equally untrusted, the vendor value just wins as the latest
// write when present.
type Compass struct {
	mu      sync.Mutex
	heading float64
	status  HeadingStatus
}

// NewCompass returns a compass in the HeadingUnknown state.
func NewCompass() *Compass {
	return &Compass{status: HeadingUnknown}
}

// SetHeading records a new heading in degrees and marks the feed healthy.
func (c *Compass) SetHeading(deg float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heading = Normalize(deg)
	c.status = HeadingOK
}

// SetUnsupported marks the orientation sensor as unavailable on this
// platform. Distinct from permission denial: there is nothing to request.
func (c *Compass) SetUnsupported() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = HeadingUnsupported
}

// SetPermissionDenied marks the sensor as present but not permitted.
func (c *Compass) SetPermissionDenied() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = HeadingPermissionDenied
}

// Heading returns the latest heading and its status. The heading value is
// only meaningful when status is HeadingOK.
func (c *Compass) Heading() (float64, HeadingStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heading, c.status
}

// Relative returns the relative angle from the current heading to the target
// bearing, and whether the result is usable. A compass without a healthy
// heading reports ok=false rather than a default-north angle.
func (c *Compass) Relative(target float64) (relative float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != HeadingOK {
		return 0, false
	}
	return RelativeAngle(target, c.heading), true
}
