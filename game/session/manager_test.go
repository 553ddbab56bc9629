package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
)

func createTestConfig() *engine.MapConfig {
	config := &engine.MapConfig{
		Name:        "Test Map",
		Description: "Session test map",
		Width:       6,
		Height:      6,
		HouseRuns: []engine.HouseRun{
			{X: 0, Y: 0, Length: 6, Orientation: engine.Horizontal},
			{X: 2, Y: 3, Length: 2, Orientation: engine.Vertical},
		},
		ObstaclePadding: 1,
		Seed:            7,
	}
	return config
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	t.Run("with explicit ID", func(t *testing.T) {
		session, err := manager.Create("abcd", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "abcd" {
			t.Errorf("Expected ID 'abcd', got '%s'", session.ID)
		}
		if session.ConfigID != "test" {
			t.Errorf("Expected config ID 'test', got '%s'", session.ConfigID)
		}
		if session.Seed != 7 {
			t.Errorf("Expected seed from config, got %d", session.Seed)
		}
		if session.Simulation == nil {
			t.Fatal("Expected simulation to be created")
		}
		if session.Simulation.Status() != engine.StatusUninitialized {
			t.Errorf("Expected fresh simulation, got status %s", session.Simulation.Status())
		}
	})

	t.Run("with generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", config)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", session.ID)
		}
	})

	t.Run("duplicate ID is case-insensitive", func(t *testing.T) {
		_, err := manager.Create("ABCD", "test", config)
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("../x", "test", config)
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := createTestConfig()
		bad.Width = 1
		if _, err := manager.Create("bad1", "test", bad); err == nil {
			t.Error("Expected error for invalid config")
		}
	})

	t.Run("random seed when config has none", func(t *testing.T) {
		unseeded := createTestConfig()
		unseeded.Seed = 0
		session, err := manager.Create("rnd1", "test", unseeded)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.Seed == 0 {
			t.Error("Expected a non-zero generated seed")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, err := manager.Create("MiXd", "test", createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	for _, id := range []string{"MiXd", "mixd", "MIXD"} {
		got, err := manager.Get(id)
		if err != nil {
			t.Fatalf("Get(%q) failed: %v", id, err)
		}
		if got != created {
			t.Errorf("Get(%q) returned a different session", id)
		}
	}

	if _, err := manager.Get("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	first, err := manager.GetOrCreate("goc1", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := manager.GetOrCreate("goc1", "test", config)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session on second call")
	}
	if manager.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", manager.Count())
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	if _, err := manager.Create("del1", "test", createTestConfig()); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := manager.Delete("DEL1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get("del1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected deleted session to be gone, got %v", err)
	}
	if err := manager.Delete("del1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
	if err := manager.DeleteFromMemory("del1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	old, _ := manager.Create("old1", "test", config)
	manager.Create("new1", "test", config)
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	if removed := manager.CleanupExpiredSessions(time.Hour); removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("new1"); err != nil {
		t.Errorf("Recent session should remain: %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("upd1", "test", createTestConfig())
	before := time.Now().Add(-time.Minute)
	session.LastAccessedAt = before

	if err := manager.UpdateLastAccessed("UPD1"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	if !session.LastAccessedAt.After(before) {
		t.Error("Expected LastAccessedAt to move forward")
	}
	if err := manager.UpdateLastAccessed("none"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()
	a, _ := manager.Create("iso1", "test", config)
	b, _ := manager.Create("iso2", "test", config)

	for i := 0; i < 5; i++ {
		a.Simulation.Tick()
	}

	if got := a.Simulation.Stats().Ticks; got != 5 {
		t.Errorf("Expected 5 ticks on first session, got %d", got)
	}
	if got := b.Simulation.Stats().Ticks; got != 0 {
		t.Errorf("Expected untouched second session, got %d ticks", got)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	config := createTestConfig()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := strings.Repeat(string(rune('a'+i)), 4)
			session, err := manager.Create(id, "test", config)
			if err != nil {
				t.Errorf("Create %s failed: %v", id, err)
				return
			}
			session.Simulation.Tick()
			manager.List()
			manager.UpdateLastAccessed(id)
		}(i)
	}
	wg.Wait()

	if manager.Count() != 20 {
		t.Errorf("Expected 20 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := manager.generateSessionID()
		if len(id) != 4 {
			t.Fatalf("Expected 4-character ID, got '%s'", id)
		}
		seen[id] = true
	}
	if len(seen) < 40 {
		t.Errorf("Expected mostly unique IDs, got %d distinct of 50", len(seen))
	}
}
