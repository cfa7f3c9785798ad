// Package api provides the REST surface of the dice match server.
//
// Routes (all under /api):
//
//	POST   /matchmaking                 queue a user for pairing
//	DELETE /matchmaking/{userID}        cancel a pending request
//	GET    /users/{userID}              user's matchmaking/room state
//	POST   /users/{userID}/roll         roll for the user on move
//	POST   /users/{userID}/rematch      bump the room's rematch counter
//	DELETE /users/{userID}/room         end and finalize the user's room
//	GET    /users/{userID}/records      finished matches for the user
//	GET    /rooms/{id}                  room snapshot by id
//	DELETE /rooms/{id}                  end and finalize a room by id
//
// /ws upgrades to the WebSocket transport (?user=<id>).
package api
