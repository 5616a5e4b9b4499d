package types

// Box2d is a normalized (0..1) top-left bounding box: Left/Top is the
// top-left corner, Width/Height its extent.
type Box2d struct {
	Left   float64 `json:"x"`
	Top    float64 `json:"y"`
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// CX returns the box's horizontal center.
func (b Box2d) CX() float64 { return b.Left + b.Width/2 }

// CY returns the box's vertical center.
func (b Box2d) CY() float64 { return b.Top + b.Height/2 }

// Box3d is a normalized centre-based cuboid.
type Box3d struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	CZ     float64 `json:"cz"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
}

func (b Box3d) Left() float64  { return b.CX - b.Width/2 }
func (b Box3d) Top() float64   { return b.CY - b.Height/2 }
func (b Box3d) Front() float64 { return b.CZ - b.Length/2 }

// Point is a single normalized (x,y) mask vertex.
type Point struct {
	X, Y float64
}

// Mask is a list of polygons, each a list of normalized vertices. A
// polygon with fewer than three points is degenerate and is dropped by
// every constructor in this package.
type Mask [][]Point

// GpsData is a sample's geolocation.
type GpsData struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether lat/lon fall within their physical ranges.
func (g GpsData) Validate() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// ImuData is a sample's orientation.
type ImuData struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Validate reports whether roll/pitch/yaw are finite angles in radians
// within one full turn of zero.
func (i ImuData) Validate() bool {
	const twoPi = 2 * 3.14159265358979323846
	within := func(v float64) bool { return v > -twoPi && v < twoPi }
	return within(i.Roll) && within(i.Pitch) && within(i.Yaw)
}

// Location bundles a sample's optional GPS and IMU readings.
type Location struct {
	Gps *GpsData `json:"gps,omitempty"`
	Imu *ImuData `json:"imu,omitempty"`
}
