package catalog

import (
	"github.com/soniakeys/unit"
)

// builtin contains the calibrators and targets commonly scheduled on the
// MeerKAT array. Coordinates are J2000.
var builtin = []Source{
	{Name: "Sun", Kind: KindSun},
	{Name: "Moon", Kind: KindMoon},

	// Southern calibrators
	{Name: "DEEP2", RA: unit.NewRA(4, 13, 26.40), Dec: unit.NewAngle('-', 80, 0, 0)},
	{Name: "0252-712", RA: unit.NewRA(2, 52, 46.15), Dec: unit.NewAngle('-', 71, 4, 35.30)},
	{Name: "0408-65", RA: unit.NewRA(4, 8, 20.38), Dec: unit.NewAngle('-', 65, 45, 9.10)},
	{Name: "PKS 1934-638", RA: unit.NewRA(19, 39, 25.00), Dec: unit.NewAngle('-', 63, 42, 46.00)},

	// Polarization and flux calibrators
	{Name: "3C286", RA: unit.NewRA(13, 31, 8.3), Dec: unit.NewAngle(' ', 30, 30, 33)},
	{Name: "3C138", RA: unit.NewRA(5, 21, 9), Dec: unit.NewAngle(' ', 16, 38, 22)},

	// Targets and phase calibrators
	{Name: "PKS 1422-29", RA: unit.NewRA(14, 25, 30.00), Dec: unit.NewAngle('-', 30, 0, 0)},
	{Name: "alleged ghost", RA: unit.NewRA(14, 25, 30.00), Dec: unit.NewAngle(' ', 30, 0, 0)},
	{Name: "1244-255", RA: unit.NewRA(12, 46, 46.80), Dec: unit.NewAngle('-', 25, 47, 49.3)},
	{Name: "1334-127", RA: unit.NewRA(13, 37, 39.78), Dec: unit.NewAngle('-', 12, 57, 24.7)},
	{Name: "NGC4993_off", RA: unit.NewRA(13, 9, 21.00), Dec: unit.NewAngle('-', 23, 31, 24.0)},
	{Name: "3C283", RA: unit.NewRA(13, 11, 40.10), Dec: unit.NewAngle('-', 22, 17, 4.0)},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(builtin...)
	if err != nil {
		panic(err) // builtin entries are unique
	}
	return c
}
