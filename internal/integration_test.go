// Package internal contains integration tests that verify the packages
// work together correctly. These tests exercise the lifecycle controller
// and the reconciler against a shared fake launcher, simulating the
// composition the CLI and the dashboard use.
package internal

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/servup/servup/internal/lifecycle"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/project"
	"github.com/servup/servup/internal/reconcile"
)

// fakeLauncher stands in for the external launcher: it spawns a shell
// script instead of a real server and serves a mutable instance listing.
type fakeLauncher struct {
	mu        sync.Mutex
	script    string
	instances []project.ListedInstance
}

func (f *fakeLauncher) StartCommand(ctx context.Context, projectPath string, s project.Settings) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", f.script)
}

func (f *fakeLauncher) List(ctx context.Context) []project.ListedInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]project.ListedInstance(nil), f.instances...)
}

func (f *fakeLauncher) setInstances(instances []project.ListedInstance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = instances
}

// silentWeb answers no probe; reconciliation must rely on the listing.
type silentWeb struct{}

func (silentWeb) Serving(ctx context.Context, proto, host, port string) bool { return false }

// freePorts reports every port as available.
type freePorts struct{}

func (freePorts) InUse(port string) bool { return false }

func waitForStatus(t *testing.T, store *project.Store, id string, want project.Status) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if p, _ := store.Get(id); p.Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	p, _ := store.Get(id)
	t.Fatalf("status = %v, want %v", p.Status, want)
}

// TestControllerReconcilerIntegration walks a project through the full
// composed flow: a controller-owned start survives a reconciliation pass,
// an external adoption marks it running again after a stop, and removing
// the external instance sweeps it back to stopped.
func TestControllerReconcilerIntegration(t *testing.T) {
	store := project.NewStore()
	p := project.New("shop", "/home/dev/shop")
	if err := store.Add(p); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	launch := &fakeLauncher{script: `echo "listening on :8000"; sleep 30`}
	bus := notify.NewBus(nil)
	controller := lifecycle.NewController(store, launch, freePorts{}, silentWeb{}, bus, nil)
	rec := reconcile.New(store, launch, silentWeb{}, controller, bus, nil)
	t.Cleanup(func() { _ = controller.Stop(context.Background(), p.ID) })

	// A controller-owned start reaches running via the readiness signal.
	if err := controller.Start(context.Background(), p.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitForStatus(t, store, p.ID, project.StatusRunning)

	// The launcher listing does not mention the project, but the
	// controller owns its process: a pass must not demote it.
	rec.Pass(context.Background())
	if got, _ := store.Get(p.ID); got.Status != project.StatusRunning {
		t.Fatalf("status after pass on owned project = %v, want running", got.Status)
	}

	if err := controller.Stop(context.Background(), p.ID); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	waitForStatus(t, store, p.ID, project.StatusStopped)

	// An externally started instance with a matching path is adopted.
	launch.setInstances([]project.ListedInstance{
		{PID: "999999", Port: "8000", PathFragment: "...dev/shop"},
	})
	rec.Pass(context.Background())
	got, _ := store.Get(p.ID)
	if got.Status != project.StatusRunning {
		t.Fatalf("status after adoption = %v, want running", got.Status)
	}
	if got.PID != "999999" {
		t.Errorf("adopted pid = %q, want 999999", got.PID)
	}

	// The instance disappears; the next pass sweeps the project stopped.
	launch.setInstances(nil)
	rec.Pass(context.Background())
	got, _ = store.Get(p.ID)
	if got.Status != project.StatusStopped {
		t.Errorf("status after sweep = %v, want stopped", got.Status)
	}
	if got.PID != "" {
		t.Errorf("pid after sweep = %q, want cleared", got.PID)
	}
}

// TestCrashSurvivesReconciliation verifies that a crash recorded by the
// controller is not overwritten by subsequent reconciliation passes, and
// that crash events reach bus subscribers.
func TestCrashSurvivesReconciliation(t *testing.T) {
	store := project.NewStore()
	p := project.New("shop", "/home/dev/shop")
	if err := store.Add(p); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	launch := &fakeLauncher{script: `echo "starting"; exit 7`}
	bus := notify.NewBus(nil)

	crashed := make(chan notify.Event, 1)
	bus.Subscribe(notify.TypeCrashed, func(e notify.Event) {
		select {
		case crashed <- e:
		default:
		}
	})

	controller := lifecycle.NewController(store, launch, freePorts{}, silentWeb{}, bus, nil)
	rec := reconcile.New(store, launch, silentWeb{}, controller, bus, nil)

	if err := controller.Start(context.Background(), p.ID); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitForStatus(t, store, p.ID, project.StatusCrashed)

	select {
	case <-crashed:
	case <-time.After(3 * time.Second):
		t.Fatal("no crash event published")
	}

	// Passes with an empty listing keep the crash visible.
	rec.Pass(context.Background())
	rec.Pass(context.Background())
	if got, _ := store.Get(p.ID); got.Status != project.StatusCrashed {
		t.Fatalf("status after passes = %v, want crashed", got.Status)
	}

	// An explicit restart clears the crash and runs the new process.
	launch.mu.Lock()
	launch.script = `echo "listening on :8000"; sleep 30`
	launch.mu.Unlock()
	t.Cleanup(func() { _ = controller.Stop(context.Background(), p.ID) })

	if err := controller.Restart(context.Background(), p.ID); err != nil {
		t.Fatalf("Restart() error: %v", err)
	}
	waitForStatus(t, store, p.ID, project.StatusRunning)
}
