package rondo

import (
	"strconv"
	"strings"
)

// Color is an 8-bit RGB color as authored in layout documents ("#RRGGBB").
// Opacity is tracked separately (0..255), matching the wire protocol.
type Color struct {
	R, G, B uint8
}

// ColorWhite is the fallback for unparsable color strings.
var ColorWhite = Color{255, 255, 255}

// ParseColor parses a "#RRGGBB" hex string. Malformed input returns
// ColorWhite and false; callers log and continue.
func ParseColor(s string) (Color, bool) {
	if len(s) != 7 || s[0] != '#' {
		return ColorWhite, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return ColorWhite, false
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v)}, true
}

// Blend mixes c toward other by t in [0, 255].
func (c Color) Blend(other Color, t uint8) Color {
	mix := func(a, b uint8) uint8 {
		return uint8(int(a) + (int(b)-int(a))*int(t)/255)
	}
	return Color{mix(c.R, other.R), mix(c.G, other.G), mix(c.B, other.B)}
}

// Kind distinguishes widget behavior. A single flat struct is used for all
// widget kinds to avoid interface dispatch during tree walks.
type Kind uint8

const (
	KindContainer Kind = iota // group node, flex layout host
	KindLabel                 // text
	KindButton                // pressable, text lives on an implicit child label
	KindImage                 // decoded raster payload
	KindBar                   // read-only min/max/value gauge
	KindSlider                // interactive min/max/value control
	KindParticle              // point-sprite simulation into an offscreen raster
)

var kindNames = map[string]Kind{
	"container": KindContainer,
	"label":     KindLabel,
	"button":    KindButton,
	"image":     KindImage,
	"bar":       KindBar,
	"slider":    KindSlider,
	"particle":  KindParticle,
}

// KindFromString maps a document "type" field to a Kind.
func KindFromString(s string) (Kind, bool) {
	k, ok := kindNames[s]
	return k, ok
}

func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLabel:
		return "label"
	case KindButton:
		return "button"
	case KindImage:
		return "image"
	case KindBar:
		return "bar"
	case KindSlider:
		return "slider"
	case KindParticle:
		return "particle"
	}
	return "unknown"
}

// Event is a bindable interaction event on a widget.
type Event uint8

const (
	EventPress Event = iota
	EventRelease
	EventClick
	EventChange // slider value committed (release-equivalent)
)

func (e Event) String() string {
	switch e {
	case EventPress:
		return "press"
	case EventRelease:
		return "release"
	case EventClick:
		return "click"
	case EventChange:
		return "change"
	}
	return "unknown"
}

// Align positions a widget within its parent.
type Align uint8

const (
	AlignDefault Align = iota
	AlignCenter
	AlignTopMid
	AlignTopLeft
	AlignTopRight
	AlignBottomMid
	AlignBottomLeft
	AlignBottomRight
	AlignLeftMid
	AlignRightMid
)

var alignNames = map[string]Align{
	"center":       AlignCenter,
	"top_mid":      AlignTopMid,
	"top_left":     AlignTopLeft,
	"top_right":    AlignTopRight,
	"bottom_mid":   AlignBottomMid,
	"bottom_left":  AlignBottomLeft,
	"bottom_right": AlignBottomRight,
	"left_mid":     AlignLeftMid,
	"right_mid":    AlignRightMid,
}

// ParseAlign maps a document align string; unrecognized values fall back to
// AlignDefault rather than erroring.
func ParseAlign(s string) Align {
	if a, ok := alignNames[s]; ok {
		return a
	}
	return AlignDefault
}

// FlexFlow selects the main axis of a flex container.
type FlexFlow uint8

const (
	FlexColumn FlexFlow = iota
	FlexRow
	FlexColumnWrap
	FlexRowWrap
)

// ParseFlexFlow maps a document flex string, defaulting to column.
func ParseFlexFlow(s string) FlexFlow {
	switch s {
	case "row":
		return FlexRow
	case "row_wrap":
		return FlexRowWrap
	case "column_wrap":
		return FlexColumnWrap
	}
	return FlexColumn
}

// FlexAlign distributes children along a flex axis.
type FlexAlign uint8

const (
	FlexStart FlexAlign = iota
	FlexEnd
	FlexCenter
	FlexSpaceEvenly
	FlexSpaceAround
	FlexSpaceBetween
)

// ParseFlexAlign maps a document justify/align_items string, defaulting to
// start.
func ParseFlexAlign(s string) FlexAlign {
	switch s {
	case "end":
		return FlexEnd
	case "center":
		return FlexCenter
	case "space_evenly":
		return FlexSpaceEvenly
	case "space_around":
		return FlexSpaceAround
	case "space_between":
		return FlexSpaceBetween
	}
	return FlexStart
}

// LongMode controls label overflow behavior.
type LongMode uint8

const (
	LongClip   LongMode = iota // default: text is clipped
	LongWrap                   // wrap onto additional lines
	LongScroll                 // continuous horizontal scroll (marquee)
	LongDot                    // truncate with ellipsis
)

// ParseLongMode maps a document long_mode string, defaulting to clip.
func ParseLongMode(s string) LongMode {
	switch s {
	case "wrap":
		return LongWrap
	case "scroll":
		return LongScroll
	case "dot":
		return LongDot
	}
	return LongClip
}

// Dim is a size value: pixels, percent of parent, or content-sized.
type Dim struct {
	Kind  DimKind
	Value int
}

// DimKind tags the interpretation of Dim.Value.
type DimKind uint8

const (
	DimContent DimKind = iota // size to content (Value unused)
	DimPx                     // absolute pixels
	DimPct                    // percent of parent extent
)

// Px is a pixel dimension.
func Px(v int) Dim { return Dim{Kind: DimPx, Value: v} }

// Pct is a percent-of-parent dimension.
func Pct(v int) Dim { return Dim{Kind: DimPct, Value: v} }

// ParseDim interprets a document size value: a number is pixels, "full" is
// 100%, "content" sizes to content, and "N%" is a percentage. Anything else
// falls back to content sizing.
func ParseDim(s string) Dim {
	switch s {
	case "full":
		return Pct(100)
	case "content", "":
		return Dim{Kind: DimContent}
	}
	if strings.HasSuffix(s, "%") {
		if v, err := strconv.Atoi(strings.TrimSuffix(s, "%")); err == nil {
			return Pct(v)
		}
		return Dim{Kind: DimContent}
	}
	if v, err := strconv.Atoi(s); err == nil {
		return Px(v)
	}
	return Dim{Kind: DimContent}
}

// Resolve computes the dimension in pixels against a parent extent.
// Content dims resolve to the given fallback.
func (d Dim) Resolve(parent, content int) int {
	switch d.Kind {
	case DimPx:
		return d.Value
	case DimPct:
		return parent * d.Value / 100
	}
	return content
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
