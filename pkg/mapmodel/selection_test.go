package mapmodel

import (
	"slices"
	"testing"
)

func TestDefaultSelection(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		order     []string
		want      []string
	}{
		{"PreferredFirst", []string{"bus_normal", "train_normal"}, nil, []string{"train_normal"}},
		{"LaterInOrder", []string{"boat_normal", "bus_normal"}, nil, []string{"boat_normal"}},
		{"UnknownType", []string{"hovercraft"}, nil, []string{"hovercraft"}},
		{"CustomOrder", []string{"bus_normal", "train_normal"}, []string{"bus_normal"}, []string{"bus_normal"}},
		{"Empty", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultSelection(tt.available, tt.order).Types()
			if !slices.Equal(got, tt.want) {
				t.Errorf("DefaultSelection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection("train_normal")
	with := s.With("bus_normal")
	if !with.Has("bus_normal") || !with.Has("train_normal") {
		t.Errorf("With() = %v", with.Types())
	}
	if s.Has("bus_normal") {
		t.Error("With() should not modify the receiver")
	}

	without := with.Without("train_normal")
	if without.Has("train_normal") || !without.Has("bus_normal") {
		t.Errorf("Without() = %v", without.Types())
	}
	if !with.Has("train_normal") {
		t.Error("Without() should not modify the receiver")
	}

	if got := with.Without("bus_normal").Types(); !slices.Equal(got, s.Types()) {
		t.Errorf("toggle round trip = %v, want %v", got, s.Types())
	}
}

func TestSelectionNil(t *testing.T) {
	var s Selection
	if s.Has("train_normal") || len(s.Types()) != 0 {
		t.Error("nil selection should select nothing")
	}
	if !s.With("bus_normal").Has("bus_normal") {
		t.Error("With() on nil selection")
	}
}
