package rondo

import "testing"

func TestFlexStart(t *testing.T) {
	// axis 100, content 60 leaves 40 free to distribute.
	cases := []struct {
		name    string
		justify FlexAlign
		content int
		gap     int
		n       int
		start   int
		outGap  int
	}{
		{"start", FlexStart, 60, 4, 3, 0, 4},
		{"center", FlexCenter, 60, 4, 3, 20, 4},
		{"end", FlexEnd, 60, 4, 3, 40, 4},
		{"space_between", FlexSpaceBetween, 60, 0, 3, 0, 20},
		{"space_between single child centers", FlexSpaceBetween, 60, 0, 1, 20, 0},
		{"space_evenly", FlexSpaceEvenly, 60, 0, 3, 10, 10},
		{"space_evenly keeps base gap", FlexSpaceEvenly, 60, 4, 3, 10, 14},
		{"space_around", FlexSpaceAround, 60, 0, 3, 6, 13},
		{"space_around single child centers", FlexSpaceAround, 40, 0, 1, 30, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, gap := flexStart(tc.justify, 100, tc.content, tc.gap, tc.n)
			if start != tc.start || gap != tc.outGap {
				t.Errorf("flexStart(%v) = (%d, %d), want (%d, %d)",
					tc.justify, start, gap, tc.start, tc.outGap)
			}
		})
	}
}

func TestCrossPos(t *testing.T) {
	cases := []struct {
		name  string
		align FlexAlign
		want  int
	}{
		{"start", FlexStart, 10},
		{"center", FlexCenter, 40},
		{"end", FlexEnd, 70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := crossPos(tc.align, 10, 100, 40); got != tc.want {
				t.Errorf("crossPos(%v) = %d, want %d", tc.align, got, tc.want)
			}
		})
	}
}
