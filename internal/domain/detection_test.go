package domain

import (
	"math"
	"testing"
)

func TestRectIoU(t *testing.T) {
	t.Run("identical rects yield 1.0", func(t *testing.T) {
		r := Rect{X: 10, Y: 10, Width: 50, Height: 50}
		if got := r.IoU(r); got != 1.0 {
			t.Errorf("IoU = %v, want 1.0", got)
		}
	})

	t.Run("disjoint rects yield 0.0", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
		b := Rect{X: 100, Y: 100, Width: 10, Height: 10}
		if got := a.IoU(b); got != 0.0 {
			t.Errorf("IoU = %v, want 0.0", got)
		}
	})

	t.Run("touching edges yield 0.0", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
		b := Rect{X: 10, Y: 0, Width: 10, Height: 10}
		if got := a.IoU(b); got != 0.0 {
			t.Errorf("IoU = %v, want 0.0", got)
		}
	})

	t.Run("half overlap", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
		b := Rect{X: 5, Y: 0, Width: 10, Height: 10}
		// intersection 50, union 150
		want := 1.0 / 3.0
		if got := a.IoU(b); math.Abs(got-want) > 1e-9 {
			t.Errorf("IoU = %v, want %v", got, want)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Rect{X: 3, Y: 7, Width: 20, Height: 15}
		b := Rect{X: 10, Y: 10, Width: 25, Height: 8}
		if a.IoU(b) != b.IoU(a) {
			t.Errorf("IoU not symmetric: %v vs %v", a.IoU(b), b.IoU(a))
		}
	})

	t.Run("degenerate rect yields 0.0", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, Width: 0, Height: 10}
		b := Rect{X: 0, Y: 0, Width: 10, Height: 10}
		if got := a.IoU(b); got != 0.0 {
			t.Errorf("IoU = %v, want 0.0", got)
		}
	})
}

func TestItemSlots(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want int
	}{
		{"normal footprint", Item{Width: 2, Height: 3}, 6},
		{"zero dimensions floor to 1", Item{Width: 0, Height: 0}, 1},
		{"negative dimensions floor to 1", Item{Width: -1, Height: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Slots(); got != tt.want {
				t.Errorf("Slots() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Gunpowder", "gunpowder"},
		{"  Multi-tool  ", "multi-tool"},
		{"M4A1 (FDE)", "m4a1fde"},
		{"Gold chain", "goldchain"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBestTraderOffer(t *testing.T) {
	item := Item{
		SellFor: map[string]int{
			"therapist":   15000,
			"mechanic":    12000,
			"fence":       20000,
			"flea market": 25000,
		},
	}

	name, price := item.BestTraderOffer()
	if name != "Therapist" || price != 15000 {
		t.Errorf("BestTraderOffer() = (%q, %d), want (Therapist, 15000)", name, price)
	}
}

func TestFleaOffer(t *testing.T) {
	t.Run("prefers flea listing", func(t *testing.T) {
		item := Item{BasePrice: 100, SellFor: map[string]int{"flea market": 9000}}
		if got := item.FleaOffer(); got != 9000 {
			t.Errorf("FleaOffer() = %d, want 9000", got)
		}
	})

	t.Run("falls back to base price", func(t *testing.T) {
		item := Item{BasePrice: 100}
		if got := item.FleaOffer(); got != 100 {
			t.Errorf("FleaOffer() = %d, want 100", got)
		}
	})
}
