/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"travelstory/internal/domain"
)

func TestAffineBasic(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	require.Equal(t, Pt{12, 8}, p)
}

func TestAffineInvertRoundTrip(t *testing.T) {
	m := About(Pt{50, 50}, Rotate(0.7)).Mul(Scale(2, 0.5)).Mul(Translate(3, -4))
	inv, ok := m.Invert()
	require.True(t, ok)
	p := inv.Apply(m.Apply(Pt{17, 23}))
	require.InDelta(t, 17, p.X, 1e-9)
	require.InDelta(t, 23, p.Y, 1e-9)

	_, ok = Scale(0, 1).Invert()
	require.False(t, ok)
}

func TestResizeFloorsAtMinDim(t *testing.T) {
	it := domain.NewImage("x", 1)
	it.Size = domain.Size{Width: 100, Height: 100}
	pos, size := Resize(it, domain.Position{X: 100, Y: 100}, domain.Size{Width: 30, Height: 120.7})
	require.Equal(t, domain.Position{X: 100, Y: 100}, pos)
	require.Equal(t, domain.Size{Width: 50, Height: 120}, size)

	_, size = Resize(it, pos, domain.Size{Width: -10, Height: math.NaN()})
	require.Equal(t, domain.Size{Width: domain.MinDim, Height: domain.MinDim}, size)
}

func TestMoveTakesCoordinatesAsAuthoritative(t *testing.T) {
	it := domain.NewSticker("s", 1)
	require.Equal(t, domain.Position{X: -5, Y: 900}, Move(it, domain.Position{X: -5, Y: 900}))
}

func TestClampToBounds(t *testing.T) {
	bounds := R(0, 0, 1000, 600)
	size := domain.Size{Width: 200, Height: 100}
	require.Equal(t, domain.Position{X: 0, Y: 0}, ClampToBounds(domain.Position{X: -40, Y: -1}, size, bounds))
	require.Equal(t, domain.Position{X: 800, Y: 500}, ClampToBounds(domain.Position{X: 950, Y: 580}, size, bounds))
	require.Equal(t, domain.Position{X: 10, Y: 20}, ClampToBounds(domain.Position{X: 10, Y: 20}, size, bounds))
}

func TestHitRespectsRotation(t *testing.T) {
	it := domain.NewImage("x", 1)
	it.Position = domain.Position{X: 0, Y: 0}
	it.Size = domain.Size{Width: 200, Height: 50}
	require.True(t, Hit(it, Pt{190, 25}))

	it.Rotation = 90
	// Rotated about (100,25) the long axis is now vertical.
	require.False(t, Hit(it, Pt{190, 25}))
	require.True(t, Hit(it, Pt{100, 110}))
}

func TestTopmostAtPrefersHighestZ(t *testing.T) {
	a := domain.NewImage("a", 1)
	b := domain.NewImage("b", 2)
	id, ok := TopmostAt([]domain.Item{b, a}, Pt{150, 150})
	require.True(t, ok)
	require.Equal(t, b.ID, id)

	_, ok = TopmostAt([]domain.Item{a}, Pt{5, 5})
	require.False(t, ok)
}

func TestRotatedBoundsQuarterTurn(t *testing.T) {
	it := domain.NewImage("x", 1)
	it.Position = domain.Position{X: 0, Y: 0}
	it.Size = domain.Size{Width: 200, Height: 100}
	it.Rotation = 90
	b := RotatedBounds(it)
	require.InDelta(t, 50, b.X, 1e-9)
	require.InDelta(t, -50, b.Y, 1e-9)
	require.InDelta(t, 100, b.W, 1e-9)
	require.InDelta(t, 200, b.H, 1e-9)
}

func TestRectOverlaps(t *testing.T) {
	page := R(0, 0, 400, 300)
	require.True(t, R(350, 250, 100, 100).Overlaps(page))
	require.True(t, R(-10, -10, 500, 500).Overlaps(page))
	require.False(t, R(400, 0, 50, 50).Overlaps(page), "touching edges share no area")
	require.False(t, R(-60, 100, 50, 50).Overlaps(page))
}

func TestNormalizeDegrees(t *testing.T) {
	require.Equal(t, 0.0, NormalizeDegrees(360))
	require.Equal(t, 270.0, NormalizeDegrees(-90))
	require.Equal(t, 30.0, NormalizeDegrees(750))
}
