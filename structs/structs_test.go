package structs

import "testing"

func TestDirectionValid(t *testing.T) {
	cases := []struct {
		d    Direction
		want bool
	}{
		{Right, true},
		{Left, true},
		{Up, true},
		{Down, true},
		{Direction{}, false},
		{Direction{X: 1, Y: 1}, false},
		{Direction{X: 2, Y: 0}, false},
		{Direction{X: 0, Y: -3}, false},
	}
	for _, c := range cases {
		if got := c.d.Valid(); got != c.want {
			t.Errorf("%v.Valid() = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	pairs := [][2]Direction{{Right, Left}, {Up, Down}}
	for _, p := range pairs {
		if p[0].Opposite() != p[1] || p[1].Opposite() != p[0] {
			t.Fatalf("%v and %v should be opposites", p[0], p[1])
		}
		if !p[0].IsOpposite(p[1]) {
			t.Fatalf("%v.IsOpposite(%v) = false", p[0], p[1])
		}
	}
	if Right.IsOpposite(Up) {
		t.Fatal("right and up are not opposite")
	}
	if Right.IsOpposite(Right) {
		t.Fatal("right is not opposite to itself")
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range []Direction{Right, Left, Up, Down} {
		got, err := ParseDirection(d.String())
		if err != nil || got != d {
			t.Fatalf("ParseDirection(%q) = %v, %v", d.String(), got, err)
		}
	}
	if _, err := ParseDirection("north"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestStepWraps(t *testing.T) {
	const w, h = 40, 30
	cases := []struct {
		from Coordinate
		d    Direction
		want Coordinate
	}{
		{Coordinate{39, 5}, Right, Coordinate{0, 5}},
		{Coordinate{0, 5}, Left, Coordinate{39, 5}},
		{Coordinate{7, 29}, Up, Coordinate{7, 0}},
		{Coordinate{7, 0}, Down, Coordinate{7, 29}},
		{Coordinate{10, 10}, Right, Coordinate{11, 10}},
	}
	for _, c := range cases {
		if got := c.from.Step(c.d, w, h); got != c.want {
			t.Errorf("%v.Step(%v) = %v, want %v", c.from, c.d, got, c.want)
		}
	}
}
