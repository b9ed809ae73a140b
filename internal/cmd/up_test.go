package cmd

import (
	"testing"

	"github.com/servup/servup/internal/project"
)

func TestApplyStartFlags(t *testing.T) {
	store := project.NewStore()
	p := project.New("app", "/p/app")
	if err := store.Add(p); err != nil {
		t.Fatal(err)
	}
	a := &app{store: store}

	upExtraArgs = `-v "two words"`
	upWatch = []string{"**/*.php", "templates/**"}
	t.Cleanup(func() { upExtraArgs = ""; upWatch = nil })

	cur, _ := store.Get(p.ID)
	if err := applyStartFlags(a, &cur, []string{"--no-color"}); err != nil {
		t.Fatalf("applyStartFlags() error: %v", err)
	}

	wantExtras := []string{"-v", "two words", "--no-color"}
	if len(cur.Settings.ExtraArgs) != len(wantExtras) {
		t.Fatalf("extra args = %v, want %v", cur.Settings.ExtraArgs, wantExtras)
	}
	for i, want := range wantExtras {
		if cur.Settings.ExtraArgs[i] != want {
			t.Errorf("extra arg %d = %q, want %q", i, cur.Settings.ExtraArgs[i], want)
		}
	}
	if len(cur.Settings.WatchExtra) != 2 || cur.Settings.WatchExtra[0] != "**/*.php" {
		t.Errorf("watch patterns = %v", cur.Settings.WatchExtra)
	}

	// The settings are saved, not just applied to the copy.
	saved, _ := store.Get(p.ID)
	if len(saved.Settings.ExtraArgs) != len(wantExtras) {
		t.Errorf("saved extra args = %v, want %v", saved.Settings.ExtraArgs, wantExtras)
	}
}

func TestApplyStartFlags_NoFlagsNoWrite(t *testing.T) {
	store := project.NewStore()
	p := project.New("app", "/p/app")
	if err := store.Add(p); err != nil {
		t.Fatal(err)
	}
	a := &app{store: store}

	cur, _ := store.Get(p.ID)
	if err := applyStartFlags(a, &cur, nil); err != nil {
		t.Fatalf("applyStartFlags() error: %v", err)
	}
	if len(cur.Settings.ExtraArgs) != 0 || len(cur.Settings.WatchExtra) != 0 {
		t.Errorf("settings mutated without flags: %+v", cur.Settings)
	}
}
