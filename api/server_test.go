package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"diceduel/game/match"
	"diceduel/game/room"
	"diceduel/game/service"
	"diceduel/identity"
	"diceduel/record"
)

// MockMatchService implements service.MatchService for testing
type MockMatchService struct {
	StartMatchmakingFunc func(ctx context.Context, userID string) error
	StopMatchmakingFunc  func(ctx context.Context, userID string) error
	UserStateFunc        func(ctx context.Context, userID string) (*service.UserState, error)
	RoomStateFunc        func(ctx context.Context, roomID int64) (*service.RoomState, error)
	RollFunc             func(ctx context.Context, userID string) (*service.RollResult, error)
	RematchFunc          func(ctx context.Context, userID string) (int, error)
	LeaveRoomFunc        func(ctx context.Context, userID string) error
	RemoveRoomFunc       func(ctx context.Context, roomID int64) error
	RecordsFunc          func(ctx context.Context, userID string) ([]service.MatchSummary, error)
}

func (m *MockMatchService) StartMatchmaking(ctx context.Context, userID string) error {
	if m.StartMatchmakingFunc != nil {
		return m.StartMatchmakingFunc(ctx, userID)
	}
	return nil
}

func (m *MockMatchService) StopMatchmaking(ctx context.Context, userID string) error {
	if m.StopMatchmakingFunc != nil {
		return m.StopMatchmakingFunc(ctx, userID)
	}
	return nil
}

func (m *MockMatchService) UserState(ctx context.Context, userID string) (*service.UserState, error) {
	if m.UserStateFunc != nil {
		return m.UserStateFunc(ctx, userID)
	}
	return &service.UserState{UserID: userID}, nil
}

func (m *MockMatchService) RoomState(ctx context.Context, roomID int64) (*service.RoomState, error) {
	if m.RoomStateFunc != nil {
		return m.RoomStateFunc(ctx, roomID)
	}
	return &service.RoomState{}, nil
}

func (m *MockMatchService) Roll(ctx context.Context, userID string) (*service.RollResult, error) {
	if m.RollFunc != nil {
		return m.RollFunc(ctx, userID)
	}
	return &service.RollResult{Value: 1}, nil
}

func (m *MockMatchService) Rematch(ctx context.Context, userID string) (int, error) {
	if m.RematchFunc != nil {
		return m.RematchFunc(ctx, userID)
	}
	return 1, nil
}

func (m *MockMatchService) LeaveRoom(ctx context.Context, userID string) error {
	if m.LeaveRoomFunc != nil {
		return m.LeaveRoomFunc(ctx, userID)
	}
	return nil
}

func (m *MockMatchService) RemoveRoom(ctx context.Context, roomID int64) error {
	if m.RemoveRoomFunc != nil {
		return m.RemoveRoomFunc(ctx, roomID)
	}
	return nil
}

func (m *MockMatchService) Records(ctx context.Context, userID string) ([]service.MatchSummary, error) {
	if m.RecordsFunc != nil {
		return m.RecordsFunc(ctx, userID)
	}
	return nil, nil
}

// Test helpers

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestStartMatchmakingEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockMatchService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "queues the user",
			requestBody: map[string]string{"user_id": "alice"},
			setupMock: func(m *MockMatchService) {
				m.UserStateFunc = func(ctx context.Context, userID string) (*service.UserState, error) {
					return &service.UserState{UserID: userID, Waiting: true}, nil
				}
			},
			expectedStatus: http.StatusAccepted,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.UserState
				parseResponse(t, w, &resp)
				if resp.UserID != "alice" || !resp.Waiting {
					t.Errorf("Expected alice waiting, got %+v", resp)
				}
			},
		},
		{
			name:           "rejects a missing user id",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejects a malformed body",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockMatchService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server := NewServer(mockService, nil)
			w := httptest.NewRecorder()

			server.ServeHTTP(w, makeRequest("POST", "/api/matchmaking", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		setupMock      func(*MockMatchService)
		expectedStatus int
	}{
		{
			name:   "roll without a room is 404",
			method: "POST",
			path:   "/api/users/alice/roll",
			setupMock: func(m *MockMatchService) {
				m.RollFunc = func(ctx context.Context, userID string) (*service.RollResult, error) {
					return nil, service.ErrNotInRoom
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "roll off move is 409",
			method: "POST",
			path:   "/api/users/alice/roll",
			setupMock: func(m *MockMatchService) {
				m.RollFunc = func(ctx context.Context, userID string) (*service.RollResult, error) {
					return nil, room.ErrNotOnMove
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "roll on a finished match is 409",
			method: "POST",
			path:   "/api/users/alice/roll",
			setupMock: func(m *MockMatchService) {
				m.RollFunc = func(ctx context.Context, userID string) (*service.RollResult, error) {
					return nil, room.ErrRoomOver
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "unknown room is 404",
			method: "GET",
			path:   "/api/rooms/99",
			setupMock: func(m *MockMatchService) {
				m.RoomStateFunc = func(ctx context.Context, roomID int64) (*service.RoomState, error) {
					return nil, service.ErrNoRoom
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockMatchService{}
			tt.setupMock(mockService)
			server := NewServer(mockService, nil)
			w := httptest.NewRecorder()

			server.ServeHTTP(w, makeRequest(tt.method, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			var resp map[string]string
			parseResponse(t, w, &resp)
			if resp["error"] == "" {
				t.Error("Expected an error message in the body")
			}
		})
	}
}

func TestRoomEndpoints(t *testing.T) {
	t.Run("rejects a non-numeric room id", func(t *testing.T) {
		server := NewServer(&MockMatchService{}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/rooms/abc", nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("removal responds no content", func(t *testing.T) {
		removed := int64(0)
		server := NewServer(&MockMatchService{
			RemoveRoomFunc: func(ctx context.Context, roomID int64) error {
				removed = roomID
				return nil
			},
		}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("DELETE", "/api/rooms/77", nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("Expected status 204, got %d", w.Code)
		}
		if removed != 77 {
			t.Errorf("Expected room 77 removed, got %d", removed)
		}
	})
}

func TestRecordsEndpoint(t *testing.T) {
	t.Run("empty history is an empty array", func(t *testing.T) {
		server := NewServer(&MockMatchService{}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/users/alice/records", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("Expected an empty JSON array, got %q", body)
		}
	})

	t.Run("returns summaries", func(t *testing.T) {
		server := NewServer(&MockMatchService{
			RecordsFunc: func(ctx context.Context, userID string) ([]service.MatchSummary, error) {
				return []service.MatchSummary{
					{ID: "rec-1", UserID1: "alice", UserID2: "bob", Score1: 12, Score2: 9, Winner: 0, WinnerUserID: "alice"},
				}, nil
			},
		}, nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest("GET", "/api/users/alice/records", nil))

		var resp []service.MatchSummary
		parseResponse(t, w, &resp)
		if len(resp) != 1 || resp[0].WinnerUserID != "alice" {
			t.Errorf("Expected alice's win in the history, got %+v", resp)
		}
	})
}

func TestWebSocketWithoutHub(t *testing.T) {
	server := NewServer(&MockMatchService{}, nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/ws?user=alice", nil))
	if w.Code != http.StatusNotImplemented {
		t.Errorf("Expected status 501, got %d", w.Code)
	}
}

// TestMatchLifecycle drives a full match through the REST surface against the
// real service stack.
func TestMatchLifecycle(t *testing.T) {
	store := record.NewMemoryStore()
	registry := match.NewRegistry(match.Config{
		Timing: room.Timing{TurnTimeout: time.Hour, PollDelay: time.Hour, PollInterval: time.Hour},
		Rounds: 1,
	}, store)
	svc := service.NewMatchService(registry, identity.Passthrough{}, store)
	server := NewServer(svc, nil)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, makeRequest(method, path, body))
		return w
	}

	// Queue both players.
	if w := do("POST", "/api/matchmaking", map[string]string{"user_id": "alice"}); w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}
	if w := do("POST", "/api/matchmaking", map[string]string{"user_id": "bob"}); w.Code != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", w.Code)
	}

	var state service.UserState
	w := do("GET", "/api/users/alice", nil)
	parseResponse(t, w, &state)
	if !state.InRoom || state.Room == nil {
		t.Fatalf("Expected alice in a room, got %+v", state)
	}

	// One round: each side rolls once, in room order.
	first, second := state.Room.Users[0].ID, state.Room.Users[1].ID
	if w := do("POST", "/api/users/"+second+"/roll", nil); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for a roll off move, got %d", w.Code)
	}
	var result service.RollResult
	w = do("POST", "/api/users/"+first+"/roll", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	parseResponse(t, w, &result)
	if result.Value < 1 || result.Value > 6 {
		t.Errorf("Expected a d6 roll, got %d", result.Value)
	}
	w = do("POST", "/api/users/"+second+"/roll", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	parseResponse(t, w, &result)
	if !result.Room.Over {
		t.Fatal("Expected the match over after one round")
	}

	// Leave and check the history from both sides.
	if w := do("DELETE", "/api/users/"+first+"/room", nil); w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", w.Code)
	}
	for _, user := range []string{first, second} {
		var recs []service.MatchSummary
		w := do("GET", "/api/users/"+user+"/records", nil)
		parseResponse(t, w, &recs)
		if len(recs) != 1 {
			t.Fatalf("Expected one record for %s, got %d", user, len(recs))
		}
	}
}
