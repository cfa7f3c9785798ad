package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"diceduel/game/service"
)

// Server wraps the match service in an MCP tool surface.
type Server struct {
	service   service.MatchService
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers all tools.
func NewServer(svc service.MatchService, version string) *Server {
	s := &Server{service: svc}
	s.initMCPServer(version)
	return s
}

// MCPServer returns the underlying MCP server for mounting on a transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) initMCPServer(version string) {
	s.mcpServer = server.NewMCPServer(
		"Dice Duel",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Dice Duel - MCP Interface

A two-player dice match server. Players are paired through matchmaking, then
take turns rolling a d6; after the final round the higher total wins. A
player who stalls past the turn timeout forfeits.

AVAILABLE TOOLS:
- start_matchmaking: Queue a user for pairing
- stop_matchmaking: Cancel a pending matchmaking request
- user_state: Current matchmaking/room state for a user
- room_state: Snapshot of a room by id
- roll: Roll the die (user must be on move)
- rematch: Bump the room's rematch counter
- leave_room: End and finalize the user's room
- match_records: Finished matches for a user

State is pushed to WebSocket clients; MCP clients should re-read user_state
after actions.`),
	)

	s.registerTools()
}

func (s *Server) registerTools() {
	userIDProp := map[string]interface{}{
		"type":        "string",
		"description": "User id",
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "start_matchmaking",
		Description: "Queue a user for pairing with the next waiting user",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleStartMatchmaking)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "stop_matchmaking",
		Description: "Cancel a pending matchmaking request",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleStopMatchmaking)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "user_state",
		Description: "Get a user's current matchmaking and room state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleUserState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "room_state",
		Description: "Get a snapshot of a live room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				// Room ids are 63-bit integers; they travel as strings
				// because JSON numbers lose precision past 2^53.
				"room_id": map[string]interface{}{
					"type":        "string",
					"description": "Room id (decimal string)",
				},
			},
			Required: []string{"room_id"},
		},
	}, s.handleRoomState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "roll",
		Description: "Roll the die for the user currently on move",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleRoll)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "rematch",
		Description: "Increment the rematch counter on the user's room",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleRematch)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "leave_room",
		Description: "End and finalize the user's current room",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleLeaveRoom)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "match_records",
		Description: "List a user's finished matches, most recent first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"user_id": userIDProp},
			Required:   []string{"user_id"},
		},
	}, s.handleMatchRecords)
}

func userIDArg(request mcp.CallToolRequest) (string, bool) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return "", false
	}
	userID, _ := args["user_id"].(string)
	return userID, userID != ""
}

func resultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleStartMatchmaking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	if err := s.service.StartMatchmaking(ctx, userID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.service.UserState(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(state)
}

func (s *Server) handleStopMatchmaking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	if err := s.service.StopMatchmaking(ctx, userID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("matchmaking stopped"), nil
}

func (s *Server) handleUserState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	state, err := s.service.UserState(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(state)
}

func (s *Server) handleRoomState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("room_id is required"), nil
	}
	raw, _ := args["room_id"].(string)
	if raw == "" {
		return mcp.NewToolResultError("room_id is required"), nil
	}
	roomID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return mcp.NewToolResultError("invalid room_id"), nil
	}
	state, err := s.service.RoomState(ctx, roomID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(state)
}

func (s *Server) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	result, err := s.service.Roll(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(result)
}

func (s *Server) handleRematch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	count, err := s.service.Rematch(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("rematch counter: %d", count)), nil
}

func (s *Server) handleLeaveRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	if err := s.service.LeaveRoom(ctx, userID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("room finalized"), nil
}

func (s *Server) handleMatchRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, ok := userIDArg(request)
	if !ok {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	records, err := s.service.Records(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(records)
}
