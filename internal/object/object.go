package object

import "time"

// ElementType: kind of drawable primitive
type ElementType string

const (
	TypeLine      ElementType = "line"
	TypeRectangle ElementType = "rectangle"
	TypeCircle    ElementType = "circle"
	TypeText      ElementType = "text"
	TypeImage     ElementType = "image"
)

// Point: single coordinate on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one drawable unit in a room.
// ID, Type and CreatedBy are fixed once the server has accepted the element.
type Element struct {
	ID          string      `json:"id"`
	Type        ElementType `json:"type"`
	Points      []Point     `json:"points"`
	Color       string      `json:"color"`
	StrokeWidth float64     `json:"strokeWidth"`
	Fill        string      `json:"fill"`
	Text        string      `json:"text"`
	FontSize    float64     `json:"fontSize"`
	ImageURL    string      `json:"imageUrl"`
	Timestamp   time.Time   `json:"timestamp"`
	CreatedBy   string      `json:"createdBy"`
}

// Clone: deep copy so callers never share the points slice with room state
func (e Element) Clone() Element {
	if e.Points != nil {
		e.Points = append([]Point(nil), e.Points...)
	}
	return e
}

// Apply overwrites the mutable fields of e with those of src.
// Identity (ID, Type, CreatedBy) is left untouched, and an update without
// points keeps the current geometry.
func (e *Element) Apply(src Element) {
	if len(src.Points) > 0 {
		e.Points = append([]Point(nil), src.Points...)
	}
	e.Color = src.Color
	e.StrokeWidth = src.StrokeWidth
	e.Fill = src.Fill
	e.Text = src.Text
	e.FontSize = src.FontSize
	e.ImageURL = src.ImageURL
}
