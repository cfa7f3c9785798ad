package mcp

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"diceduel/game/match"
	"diceduel/game/room"
	"diceduel/game/service"
	"diceduel/identity"
	"diceduel/record"
)

func newTestServer() (*Server, *match.Registry) {
	store := record.NewMemoryStore()
	registry := match.NewRegistry(match.Config{
		Timing: room.Timing{TurnTimeout: time.Hour, PollDelay: time.Hour, PollInterval: time.Hour},
		Rounds: 1,
	}, store)
	svc := service.NewMatchService(registry, identity.Passthrough{}, store)
	return NewServer(svc, "test"), registry
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewServer(t *testing.T) {
	server, _ := newTestServer()
	if server == nil {
		t.Fatal("Expected server to be created")
	}
	if server.MCPServer() == nil {
		t.Error("Expected the MCP server to be initialized")
	}
}

func TestHandleStartMatchmaking(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer()

	t.Run("queues the user", func(t *testing.T) {
		result, err := server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
			map[string]interface{}{"user_id": "alice"}))
		if err != nil {
			t.Fatalf("Handler failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, `"waiting": true`) {
			t.Errorf("Expected a waiting state, got: %s", text)
		}
	})

	t.Run("pairs the second user", func(t *testing.T) {
		result, err := server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
			map[string]interface{}{"user_id": "bob"}))
		if err != nil {
			t.Fatalf("Handler failed: %v", err)
		}
		text := resultText(t, result)
		if !strings.Contains(text, `"in_room": true`) {
			t.Errorf("Expected an in-room state, got: %s", text)
		}
	})

	t.Run("rejects a missing user id", func(t *testing.T) {
		result, _ := server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
			map[string]interface{}{}))
		if !result.IsError {
			t.Error("Expected an error result without user_id")
		}
	})
}

func TestHandleRollAndLeave(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer()

	server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
		map[string]interface{}{"user_id": "alice"}))
	server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
		map[string]interface{}{"user_id": "bob"}))

	// The second user to request occupies slot 0 and moves first.
	result, err := server.handleRoll(ctx, callRequest("roll",
		map[string]interface{}{"user_id": "bob"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected the first mover's roll accepted, got: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), `"value"`) {
		t.Errorf("Expected the roll value in the result, got: %s", resultText(t, result))
	}

	// Same user again is off move now.
	result, _ = server.handleRoll(ctx, callRequest("roll",
		map[string]interface{}{"user_id": "bob"}))
	if !result.IsError {
		t.Error("Expected an error result for a roll off move")
	}

	result, err = server.handleLeaveRoom(ctx, callRequest("leave_room",
		map[string]interface{}{"user_id": "alice"}))
	if err != nil || result.IsError {
		t.Fatalf("LeaveRoom failed: %v %v", err, result)
	}

	result, err = server.handleMatchRecords(ctx, callRequest("match_records",
		map[string]interface{}{"user_id": "alice"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if !strings.Contains(resultText(t, result), "alice") {
		t.Errorf("Expected alice's record in the history, got: %s", resultText(t, result))
	}
}

func TestHandleUserState(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer()

	result, err := server.handleUserState(ctx, callRequest("user_state",
		map[string]interface{}{"user_id": "carol"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, `"waiting": false`) || !strings.Contains(text, `"in_room": false`) {
		t.Errorf("Expected an idle state, got: %s", text)
	}
}

func TestHandleRoomState(t *testing.T) {
	ctx := context.Background()
	server, registry := newTestServer()

	t.Run("returns a live room by id", func(t *testing.T) {
		server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
			map[string]interface{}{"user_id": "alice"}))
		server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
			map[string]interface{}{"user_id": "bob"}))
		rm := registry.UserRoom("alice")
		if rm == nil {
			t.Fatal("Pairing did not produce a room")
		}

		// Ids are 63-bit and must survive the string round trip exactly;
		// a JSON number would already have lost precision here.
		id := strconv.FormatInt(rm.ID(), 10)
		result, err := server.handleRoomState(ctx, callRequest("room_state",
			map[string]interface{}{"room_id": id}))
		if err != nil {
			t.Fatalf("Handler failed: %v", err)
		}
		if result.IsError {
			t.Fatalf("Expected the live room, got: %s", resultText(t, result))
		}
		text := resultText(t, result)
		if !strings.Contains(text, id) {
			t.Errorf("Expected room id %s in the result, got: %s", id, text)
		}
		if !strings.Contains(text, "alice") || !strings.Contains(text, "bob") {
			t.Errorf("Expected both users in the snapshot, got: %s", text)
		}
	})

	t.Run("unknown room is an error result", func(t *testing.T) {
		result, err := server.handleRoomState(ctx, callRequest("room_state",
			map[string]interface{}{"room_id": "12345"}))
		if err != nil {
			t.Fatalf("Handler failed: %v", err)
		}
		if !result.IsError {
			t.Error("Expected an error result for an unknown room")
		}
	})

	t.Run("missing room id is an error result", func(t *testing.T) {
		result, _ := server.handleRoomState(ctx, callRequest("room_state",
			map[string]interface{}{}))
		if !result.IsError {
			t.Error("Expected an error result without room_id")
		}
	})

	t.Run("non-numeric room id is an error result", func(t *testing.T) {
		result, _ := server.handleRoomState(ctx, callRequest("room_state",
			map[string]interface{}{"room_id": "not-a-number"}))
		if !result.IsError {
			t.Error("Expected an error result for a malformed room_id")
		}
	})
}

func TestHandleRematch(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer()

	server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
		map[string]interface{}{"user_id": "alice"}))
	server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
		map[string]interface{}{"user_id": "bob"}))

	result, err := server.handleRematch(ctx, callRequest("rematch",
		map[string]interface{}{"user_id": "alice"}))
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	if !strings.Contains(resultText(t, result), "rematch counter: 1") {
		t.Errorf("Expected the rematch counter, got: %s", resultText(t, result))
	}
}

func TestHandleStopMatchmaking(t *testing.T) {
	ctx := context.Background()
	server, _ := newTestServer()

	server.handleStartMatchmaking(ctx, callRequest("start_matchmaking",
		map[string]interface{}{"user_id": "alice"}))
	result, err := server.handleStopMatchmaking(ctx, callRequest("stop_matchmaking",
		map[string]interface{}{"user_id": "alice"}))
	if err != nil || result.IsError {
		t.Fatalf("StopMatchmaking failed: %v %v", err, result)
	}

	state, _ := server.handleUserState(ctx, callRequest("user_state",
		map[string]interface{}{"user_id": "alice"}))
	if !strings.Contains(resultText(t, state), `"waiting": false`) {
		t.Errorf("Expected alice no longer waiting, got: %s", resultText(t, state))
	}
}
