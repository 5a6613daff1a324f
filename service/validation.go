package service

import (
	"errors"
	"regexp"
	"strings"

	"github.com/bishal292/whiteboard/models"
)

var (
	ErrInvalidRoomId = errors.New("invalid roomId")
	ErrRoomIdMissing = errors.New("roomId required")
)

var roomIdRegex = regexp.MustCompile(`^[a-zA-Z0-9]{6,8}$`)
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

const (
	minWidth = 1
	maxWidth = 20

	DefaultColor       = "#000000"
	DefaultStrokeWidth = 2
	DefaultTool        = models.ToolPencil
)

// NormalizeRoomId trims surrounding whitespace and checks the room id format.
func NormalizeRoomId(roomId string) (string, error) {
	roomId = strings.TrimSpace(roomId)
	if roomId == "" {
		return "", ErrRoomIdMissing
	}
	if !roomIdRegex.MatchString(roomId) {
		return "", ErrInvalidRoomId
	}
	return roomId, nil
}

func ValidateDrawAttributes(attrs models.DrawAttributes) error {
	if !hexColorRegex.MatchString(attrs.Color) {
		return errors.New("invalid color")
	}

	if attrs.StrokeWidth < minWidth || attrs.StrokeWidth > maxWidth {
		return errors.New("invalid stroke width")
	}

	switch attrs.Tool {
	case models.ToolPencil, models.ToolPen:
	default:
		return errors.New("invalid tool")
	}

	return nil
}

// PartialDrawAttributes is what a client may send on join; absent fields take
// the defaults.
type PartialDrawAttributes struct {
	Color       *string `json:"color"`
	StrokeWidth *int    `json:"strokeWidth"`
	Tool        *string `json:"tool"`
}

func (p PartialDrawAttributes) Resolve() (models.DrawAttributes, error) {
	attrs := models.DrawAttributes{
		Color:       DefaultColor,
		StrokeWidth: DefaultStrokeWidth,
		Tool:        DefaultTool,
	}
	if p.Color != nil {
		attrs.Color = *p.Color
	}
	if p.StrokeWidth != nil {
		attrs.StrokeWidth = *p.StrokeWidth
	}
	if p.Tool != nil {
		attrs.Tool = models.Tool(*p.Tool)
	}
	return attrs, ValidateDrawAttributes(attrs)
}
