package types

import (
	"fmt"
	"strings"
)

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

var AxisNameMap = map[string]Axis{
	"x": AxisX,
	"y": AxisY,
	"z": AxisZ,
}

func NewAxis(label string) (a Axis, err error) {
	var ok bool
	if a, ok = AxisNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown axis %q, must be one of x, y, z", label)
	}
	return
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", uint8(a))
}

// PlaneAxes returns the two in-plane axes of a slice normal to a, in the
// order they are drawn horizontally and vertically.
func (a Axis) PlaneAxes() (u, v Axis) {
	switch a {
	case AxisX:
		return AxisY, AxisZ
	case AxisY:
		return AxisZ, AxisX
	default:
		return AxisX, AxisY
	}
}

// FieldNameMap translates the descriptive field names used in analysis
// scripts into the variable names the simulation writes to its plotfiles.
var FieldNameMap = map[string]string{
	"gravitational potential": "phiGrav",
	"gravitational_potential": "phiGrav",
	"rotational potential":    "phiRot",
	"rotational_potential":    "phiRot",
	"temperature":             "Temp",
	"internal energy":         "rho_e",
	"total energy":            "rho_E",
}

func NewFieldName(name string) string {
	if n, ok := FieldNameMap[strings.ToLower(strings.TrimSpace(name))]; ok {
		return n
	}
	return strings.TrimSpace(name)
}
