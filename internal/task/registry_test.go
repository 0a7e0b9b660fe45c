package task

import (
	"errors"
	"testing"
)

func mustRegister(t *testing.T, r *Registry, d Descriptor) *Task {
	t.Helper()
	tk, err := r.Register(d)
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", d.ID, err)
	}
	return tk
}

func startOrder(r *Registry) []string {
	var ids []string
	r.ForEachInStartOrder(func(t *Task) bool {
		ids = append(ids, t.ID)
		return true
	})
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistry_StartOrder(t *testing.T) {
	tests := []struct {
		name   string
		orders []int
		want   []string
	}{
		{"descending", []int{5, 1, 9}, []string{"t2", "t0", "t1"}},
		{"ties keep registration order", []int{3, 3, 3}, []string{"t0", "t1", "t2"}},
		{"new lowest", []int{7, 4, 1}, []string{"t0", "t1", "t2"}},
		{"new highest", []int{1, 4, 7}, []string{"t2", "t1", "t0"}},
		{"mixed ties", []int{2, 8, 2, 8, -1}, []string{"t1", "t3", "t0", "t2", "t4"}},
		{"negative", []int{-5, 0, -9999}, []string{"t1", "t0", "t2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for i, o := range tt.orders {
				mustRegister(t, r, Descriptor{
					ID:      "t" + string(rune('0'+i)),
					Order:   o,
					Command: "true",
				})
			}
			got := startOrder(r)
			if !equalIDs(got, tt.want) {
				t.Errorf("start order = %v, want %v", got, tt.want)
			}

			prev := 1 << 30
			r.ForEachInStartOrder(func(tk *Task) bool {
				if tk.Order > prev {
					t.Errorf("order increased: %d after %d", tk.Order, prev)
				}
				prev = tk.Order
				return true
			})
		})
	}
}

func TestRegistry_ForEachStopsEarly(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, Descriptor{ID: "aa", Command: "true"})
	mustRegister(t, r, Descriptor{ID: "bb", Command: "true"})

	calls := 0
	r.ForEachInStartOrder(func(*Task) bool {
		calls++
		return false
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRegistry_DuplicateID(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, Descriptor{ID: "web", Command: "true"})

	_, err := r.Register(Descriptor{ID: "web", Order: 3, Command: "false"})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected size 1, got %d", r.Len())
	}
	tk, _ := r.FindByID("web")
	if tk.Command != "true" {
		t.Errorf("original descriptor replaced: %q", tk.Command)
	}
}

func TestRegistry_Pipes(t *testing.T) {
	t.Run("pair marks both piped", func(t *testing.T) {
		r := NewRegistry()
		a := mustRegister(t, r, Descriptor{ID: "aa", Command: "echo hi"})
		b := mustRegister(t, r, Descriptor{ID: "bb", PipeID: "aa", Command: "cat"})

		if !a.Piped || !b.Piped {
			t.Fatalf("expected both piped, got a=%v b=%v", a.Piped, b.Piped)
		}
		if !a.IsOriginator() || b.IsOriginator() {
			t.Error("expected aa to be the originator")
		}
		if o, ok := r.Originator(b); !ok || o != a {
			t.Error("Originator(bb) should be aa")
		}
		if o, ok := r.Originator(a); !ok || o != a {
			t.Error("Originator(aa) should be aa")
		}
		if p, ok := r.Partner(a); !ok || p != b {
			t.Error("Partner(aa) should be bb")
		}
	})

	tests := []struct {
		name    string
		first   Descriptor
		second  Descriptor
		wantErr error
	}{
		{
			name:    "unknown partner",
			first:   Descriptor{ID: "aa", Command: "true"},
			second:  Descriptor{ID: "bb", PipeID: "zz", Command: "true"},
			wantErr: ErrUnknownPipe,
		},
		{
			name:    "respawn namer",
			first:   Descriptor{ID: "aa", Command: "true"},
			second:  Descriptor{ID: "bb", PipeID: "aa", Policy: Respawn, Command: "true"},
			wantErr: ErrPipeRespawn,
		},
		{
			name:    "respawn partner",
			first:   Descriptor{ID: "aa", Policy: Respawn, Command: "true"},
			second:  Descriptor{ID: "bb", PipeID: "aa", Command: "true"},
			wantErr: ErrPipeRespawn,
		},
		{
			name:    "self",
			first:   Descriptor{ID: "aa", Command: "true"},
			second:  Descriptor{ID: "bb", PipeID: "bb", Command: "true"},
			wantErr: ErrSelfPipe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			first := mustRegister(t, r, tt.first)
			_, err := r.Register(tt.second)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if r.Len() != 1 {
				t.Errorf("expected size 1, got %d", r.Len())
			}
			if first.Piped {
				t.Error("rejected pipe should not mark the partner")
			}
		})
	}

	t.Run("already piped", func(t *testing.T) {
		r := NewRegistry()
		mustRegister(t, r, Descriptor{ID: "aa", Command: "true"})
		mustRegister(t, r, Descriptor{ID: "bb", PipeID: "aa", Command: "true"})

		_, err := r.Register(Descriptor{ID: "cc", PipeID: "aa", Command: "true"})
		if !errors.Is(err, ErrAlreadyPiped) {
			t.Fatalf("expected ErrAlreadyPiped, got %v", err)
		}
		_, err = r.Register(Descriptor{ID: "dd", PipeID: "bb", Command: "true"})
		if !errors.Is(err, ErrAlreadyPiped) {
			t.Fatalf("expected ErrAlreadyPiped, got %v", err)
		}
		if r.Len() != 2 {
			t.Errorf("expected size 2, got %d", r.Len())
		}
	})
}

func TestRegistry_FindByPID(t *testing.T) {
	r := NewRegistry()
	a := mustRegister(t, r, Descriptor{ID: "aa", Command: "true"})
	mustRegister(t, r, Descriptor{ID: "bb", Command: "true"})
	a.PID = 4242

	got, err := r.FindByPID(4242)
	if err != nil || got != a {
		t.Fatalf("FindByPID(4242) = %v, %v", got, err)
	}
	if _, err := r.FindByPID(0); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByPID(0) should be ErrNotFound, got %v", err)
	}
	if _, err := r.FindByPID(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByPID(1) should be ErrNotFound, got %v", err)
	}
	if r.Live() != 1 {
		t.Errorf("Live() = %d, want 1", r.Live())
	}
}

func TestRegistry_FindByID(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, Descriptor{ID: "aa", Command: "true"})

	if _, err := r.FindByID("aa"); err != nil {
		t.Errorf("FindByID(aa) failed: %v", err)
	}
	if _, err := r.FindByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
