package notify

import (
	"testing"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus(nil)

	var got []Event
	bus.Subscribe(TypeCrashed, func(e Event) {
		got = append(got, e)
	})

	bus.Publish(NewCrashedEvent("id-1", "blog", 137))
	bus.Publish(NewPortConflictEvent("id-2", "shop", "8000", "8002")) // different type

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	crash, ok := got[0].(CrashedEvent)
	if !ok {
		t.Fatalf("event type = %T, want CrashedEvent", got[0])
	}
	if crash.ExitCode != 137 {
		t.Errorf("ExitCode = %d, want 137", crash.ExitCode)
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(nil)

	count := 0
	bus.SubscribeAll(func(Event) { count++ })

	bus.Publish(NewCrashedEvent("id", "blog", 1))
	bus.Publish(NewAdoptedEvent("id", "blog", "123", "8000"))
	bus.Publish(NewStopUnverifiedEvent("id", "blog"))

	if count != 3 {
		t.Errorf("wildcard handler called %d times, want 3", count)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	count := 0
	id := bus.Subscribe(TypeCrashed, func(Event) { count++ })

	bus.Publish(NewCrashedEvent("id", "blog", 1))
	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe() = false, want true")
	}
	bus.Publish(NewCrashedEvent("id", "blog", 1))

	if count != 1 {
		t.Errorf("handler called %d times after unsubscribe, want 1", count)
	}
	if bus.Unsubscribe(id) {
		t.Error("second Unsubscribe() = true, want false")
	}
}

func TestBus_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(nil)

	bus.Subscribe(TypeCrashed, func(Event) { panic("boom") })
	called := false
	bus.Subscribe(TypeCrashed, func(Event) { called = true })

	bus.Publish(NewCrashedEvent("id", "blog", 1))

	if !called {
		t.Error("handler after panicking handler was not called")
	}
}

func TestBus_OrderSpecificBeforeWildcard(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "wildcard") })
	bus.Subscribe(TypeAdopted, func(Event) { order = append(order, "specific") })

	bus.Publish(NewAdoptedEvent("id", "blog", "", ""))

	if len(order) != 2 || order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("dispatch order = %v, want [specific wildcard]", order)
	}
}

func TestDesktop_EnableDisable(t *testing.T) {
	bus := NewBus(nil)
	d := NewDesktop(bus, nil)

	var sent []string
	d.send = func(title, message string) error {
		sent = append(sent, title+": "+message)
		return nil
	}

	bus.Publish(NewCrashedEvent("id", "blog", 1))
	if len(sent) != 0 {
		t.Fatal("sink forwarded events before Enable")
	}

	d.Enable()
	if !d.Enabled() {
		t.Error("Enabled() = false after Enable")
	}
	bus.Publish(NewCrashedEvent("id", "blog", 1))
	if len(sent) != 1 {
		t.Fatalf("sink forwarded %d events, want 1", len(sent))
	}

	d.Disable()
	bus.Publish(NewCrashedEvent("id", "blog", 1))
	if len(sent) != 1 {
		t.Errorf("sink forwarded %d events after Disable, want 1", len(sent))
	}
}

func TestEventMessages(t *testing.T) {
	tests := []struct {
		name string
		e    Event
		want string
	}{
		{"crash", NewCrashedEvent("id", "blog", 137), "blog exited with code 137"},
		{"conflict", NewPortConflictEvent("id", "blog", "8000", "8002"), "blog: port 8000 is in use, try 8002"},
		{"conflict exhausted", NewPortConflictEvent("id", "blog", "65500", ""), "blog: port 65500 is in use, no free port found"},
		{"adopted with port", NewAdoptedEvent("id", "blog", "123", "8000"), "blog is already running on port 8000"},
		{"adopted without port", NewAdoptedEvent("id", "blog", "123", ""), "blog is already running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}
