package object

// Validation limit constants
const (
	MaxStringLength = 1000
	MaxURLLength    = 2048
	MaxPoints       = 10000
	MaxCoordinate   = 1000000
	MinCoordinate   = -1000000
	MaxStrokeWidth  = 1000
	MaxFontSize     = 500
	MaxColorLength  = 50
)

var AllowedElementTypes = map[ElementType]bool{
	TypeLine:      true,
	TypeRectangle: true,
	TypeCircle:    true,
	TypeText:      true,
	TypeImage:     true,
}

// minPoints: geometry each type needs to be drawable
var minPoints = map[ElementType]int{
	TypeLine:      2, // polyline vertices
	TypeRectangle: 2, // opposite corners
	TypeCircle:    2, // center + point on circumference
	TypeText:      1, // anchor
	TypeImage:     1, // anchor
}

// =============================================================================
// Wire schemas
// =============================================================================

//  single point in a polyline or bounding box
type PointSchema struct {
	X float64 `json:"x" validate:"min=-1000000,max=1000000"`
	Y float64 `json:"y" validate:"min=-1000000,max=1000000"`
}

//  presentation attributes shared by every element
type StyleSchema struct {
	Color       string  `json:"color,omitempty" validate:"omitempty,max=50"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" validate:"omitempty,min=0,max=1000"`
	Fill        string  `json:"fill,omitempty" validate:"omitempty,max=50"`
}

//  content attributes for text and image elements
type ContentSchema struct {
	Text     string  `json:"text,omitempty" validate:"omitempty,max=1000"`
	FontSize float64 `json:"fontSize,omitempty" validate:"omitempty,min=1,max=500"`
	ImageURL string  `json:"imageUrl,omitempty" validate:"omitempty,url,max=2048"`
}

// ElementSchema is the validated shape of an element as a client sends it.
// Server-owned fields (id, timestamp, createdBy) are not part of it.
type ElementSchema struct {
	Type   ElementType   `json:"type" validate:"required,oneof=line rectangle circle text image"`
	Points []PointSchema `json:"points" validate:"required,min=1,max=10000,dive"`
	StyleSchema
	ContentSchema
}

func schemaFor(e Element) ElementSchema {
	points := make([]PointSchema, len(e.Points))
	for i, p := range e.Points {
		points[i] = PointSchema{X: p.X, Y: p.Y}
	}
	return ElementSchema{
		Type:   e.Type,
		Points: points,
		StyleSchema: StyleSchema{
			Color:       e.Color,
			StrokeWidth: e.StrokeWidth,
			Fill:        e.Fill,
		},
		ContentSchema: ContentSchema{
			Text:     e.Text,
			FontSize: e.FontSize,
			ImageURL: e.ImageURL,
		},
	}
}
