package rubric

import "testing"

func TestEightPointGrade(t *testing.T) {
	cases := []struct {
		earned, max, want int
	}{
		{0, 10, 4},
		{5, 10, 4},
		{6, 10, 4},
		{7, 10, 5},
		{8, 10, 6},
		{9, 10, 7},
		{10, 10, 8},
		{100, 100, 8},
		{89, 100, 7},
	}
	for _, tc := range cases {
		if got := EightPointGrade(tc.earned, tc.max); got != tc.want {
			t.Errorf("EightPointGrade(%d, %d) = %d, want %d", tc.earned, tc.max, got, tc.want)
		}
	}
}

func TestEightPointGradeRegrade(t *testing.T) {
	// A max already on the 8-point scale credits the distance to 8 back.
	if got := EightPointGrade(6, 6); got != 8 {
		t.Fatalf("regrade 6/6 = %d, want 8", got)
	}
	if got := EightPointGrade(4, 6); got != 6 {
		t.Fatalf("regrade 4/6 = %d, want 6", got)
	}
}

func TestEightPointGradeZeroMax(t *testing.T) {
	if got := EightPointGrade(7, 0); got != 7 {
		t.Fatalf("zero max must pass earned through, got %d", got)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" product ")
	if err != nil || c != CategoryProduct {
		t.Fatalf("got %q, %v", c, err)
	}
	if _, err := ParseCategory("vibes"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestLetterGrade(t *testing.T) {
	cases := []struct {
		points, max int
		required    bool
		want        string
	}{
		{90, 100, true, "A"},
		{80, 100, true, "B"},
		{70, 100, true, "C"},
		{60, 100, true, "D"},
		{59, 100, true, "F"},
		{59, 100, false, "-"},
		{0, 0, true, "-"},
	}
	for _, tc := range cases {
		if got := LetterGrade(tc.points, tc.max, tc.required); got != tc.want {
			t.Errorf("LetterGrade(%d, %d, %v) = %q, want %q", tc.points, tc.max, tc.required, got, tc.want)
		}
	}
}

func TestScaledGrade(t *testing.T) {
	all8 := map[Category]int{
		CategoryEngagement: 8,
		CategoryProcess:    8,
		CategoryProduct:    8,
		CategoryExpertise:  8,
	}
	if got := ScaledGrade(all8); got != 8888 {
		t.Fatalf("all-8 scaled to %d, want 8888", got)
	}
	mixed := map[Category]int{
		CategoryEngagement: 7,
		CategoryProcess:    6,
		CategoryProduct:    8,
		CategoryExpertise:  5,
	}
	if got := ScaledGrade(mixed); got != 7685 {
		t.Fatalf("mixed scaled to %d, want 7685", got)
	}
	if got := ScaledGrade(map[Category]int{}); got != 1000 {
		t.Fatalf("empty scaled to %d, want floor 1000", got)
	}
}
