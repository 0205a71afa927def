// Package observation defines the frame-level input consumed by the anomaly
// classifier: the output shape of the upstream perception model and the
// source boundary it is read through. Observations are ephemeral; they are
// consumed on one tick and discarded.
package observation

import "context"

// Box is an axis-aligned bounding box in frame pixel coordinates.
type Box struct {
	XMin float64 `json:"xMin"`
	YMin float64 `json:"yMin"`
	XMax float64 `json:"xMax"`
	YMax float64 `json:"yMax"`
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 {
	return b.XMin + (b.XMax-b.XMin)/2
}

// Detection is one object detection from the upstream model.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// RawObservation is one frame's detections as reported by the upstream
// classifier. PrimaryFace is nil when no face was found; ExtraFaces counts
// faces beyond the primary one.
type RawObservation struct {
	FrameWidth  float64     `json:"frameWidth,omitempty"`
	PrimaryFace *Box        `json:"primaryFace,omitempty"`
	ExtraFaces  int         `json:"extraFaces,omitempty"`
	Objects     []Detection `json:"objects,omitempty"`
}

// FaceCount returns the total number of faces in the observation.
func (o *RawObservation) FaceCount() int {
	if o == nil || o.PrimaryFace == nil {
		return 0
	}
	return 1 + o.ExtraFaces
}

// Source is the upstream classifier boundary. One call per tick.
//
// Observe returns (nil, nil) when no observation is available for this tick;
// callers must treat both that and an error as "nothing detected" rather than
// as a positive detection of absence.
type Source interface {
	Observe(ctx context.Context, sessionID string) (*RawObservation, error)
}
