package rondo

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// NodeSpec is the typed intermediate representation of one authored widget
// node. Decoding is a separate step from tree construction so both sides can
// be tested on their own. Unrecognized document fields are ignored, not
// errors.
type NodeSpec struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`

	// Common property bag. Pointer fields distinguish "absent" from zero.
	W           *Dim   `json:"w,omitempty"`
	H           *Dim   `json:"h,omitempty"`
	Align       string `json:"align,omitempty"`
	X           int    `json:"x,omitempty"`
	Y           int    `json:"y,omitempty"`
	BgColor     string `json:"bg_color,omitempty"`
	BgOpa       *int   `json:"bg_opa,omitempty"`
	Pad         *int   `json:"pad,omitempty"`
	Radius      *int   `json:"radius,omitempty"`
	Gap         *int   `json:"gap,omitempty"`
	BorderW     *int   `json:"border_w,omitempty"`
	BorderColor string `json:"border_color,omitempty"`
	TextColor   string `json:"text_color,omitempty"`
	FontSize    *int   `json:"font_size,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`

	// Flex layout (containers and the root).
	Flex       string `json:"flex,omitempty"`
	Justify    string `json:"justify,omitempty"`
	AlignItems string `json:"align_items,omitempty"`

	// Kind-specific fields.
	Text     *string `json:"text,omitempty"`
	LongMode string  `json:"long_mode,omitempty"`
	Min      *int    `json:"min,omitempty"`
	Max      *int    `json:"max,omitempty"`
	Value    *int    `json:"value,omitempty"`
	IndicCol string  `json:"indic_color,omitempty"`
	Src      string  `json:"src,omitempty"`
	Count    *int    `json:"count,omitempty"`
	Color    string  `json:"color,omitempty"`

	// Action URI bindings.
	OnClick   string `json:"on_click,omitempty"`
	OnPress   string `json:"on_press,omitempty"`
	OnRelease string `json:"on_release,omitempty"`
	OnChange  string `json:"on_change,omitempty"`

	Anim *AnimSpec `json:"anim,omitempty"`

	Children []NodeSpec `json:"children,omitempty"`
}

// HasActions reports whether any action URI is bound.
func (n *NodeSpec) HasActions() bool {
	return n.OnClick != "" || n.OnPress != "" || n.OnRelease != "" || n.OnChange != ""
}

// AnimSpec is a declarative animation request attached to a node or patch.
type AnimSpec struct {
	Type     string `json:"type"`
	Duration int    `json:"duration,omitempty"` // milliseconds
	Repeat   *int   `json:"repeat,omitempty"`
	Dir      string `json:"dir,omitempty"` // spin: cw/ccw; slide_in: left/right/top/bottom
	Min      *int   `json:"min,omitempty"` // breathe opacity floor
	Max      *int   `json:"max,omitempty"` // breathe opacity ceiling
	Amp      *int   `json:"amplitude,omitempty"`
	ColorA   string `json:"color_from,omitempty"`
	ColorB   string `json:"color_to,omitempty"`
}

// Patch is the typed form of a ui/update document. Every field is
// independently optional; absent fields leave the property unchanged.
type Patch struct {
	ID       string    `json:"id"`
	Text     *string   `json:"text,omitempty"`
	Hidden   *bool     `json:"hidden,omitempty"`
	BgColor  string    `json:"bg_color,omitempty"`
	Value    *int      `json:"value,omitempty"`
	IndicCol string    `json:"indic_color,omitempty"`
	Opa      *int      `json:"opa,omitempty"`
	Anim     *AnimSpec `json:"anim,omitempty"`
}

// UnmarshalJSON accepts both numeric (pixels) and string ("full", "content",
// "N%") size values.
func (d *Dim) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = ParseDim(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Px(int(v))
	return nil
}

// LayoutDoc is a decoded ui/layout document. Nodes are the top-level widgets
// in document order. RootStyle is non-nil when the document was a single
// object with a children array, in which case its layout and style apply to
// the runtime's root widget.
type LayoutDoc struct {
	RootStyle *NodeSpec
	Nodes     []NodeSpec
}

// DecodeLayout parses a layout document. Accepted shapes: a bare array of
// nodes, a single object with a children array, or a single leaf node.
func DecodeLayout(data []byte) (*LayoutDoc, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty layout document")
	}
	if trimmed[0] == '[' {
		var nodes []NodeSpec
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, errors.Wrap(err, "decode layout array")
		}
		return &LayoutDoc{Nodes: nodes}, nil
	}
	var node NodeSpec
	if err := json.Unmarshal(trimmed, &node); err != nil {
		return nil, errors.Wrap(err, "decode layout object")
	}
	if len(node.Children) > 0 {
		// The root object's own layout and style apply to the runtime root.
		children := node.Children
		node.Children = nil
		return &LayoutDoc{RootStyle: &node, Nodes: children}, nil
	}
	return &LayoutDoc{Nodes: []NodeSpec{node}}, nil
}

// DecodePatch parses a ui/update document. A missing id is an error; the
// caller logs and drops the patch.
func DecodePatch(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(bytes.TrimSpace(data), &p); err != nil {
		return nil, errors.Wrap(err, "decode patch")
	}
	if p.ID == "" {
		return nil, errors.New("patch missing id")
	}
	return &p, nil
}
