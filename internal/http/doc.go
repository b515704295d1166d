// Package http provides HTTP handlers and middleware for the timetable API.
//
// Public endpoints:
//   - GET /healthz: liveness, 503 when the store does not answer.
//   - GET /schedule: the class period table and the institution timezone.
//   - POST /signup: {"email","password","name"}. Responds 201 with a session
//     like /login does.
//   - POST /login: {"email","password"}. Response {"token","expires_at","user"}.
//     The token is also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie. Signup and login are rate limited per client IP.
//   - POST /logout: revokes the token from the Authorization header or cookie.
//   - POST /sessions/refresh: rotates the presented token and extends it.
//
// Endpoints behind RequireSession:
//   - GET /profile, PUT /profile {"name"}, DELETE /account.
//   - GET /timetable, PUT /timetable {"grid": 10 rows of 5 booleans},
//     POST /timetable/cells/toggle {"slot","day"}, DELETE /timetable,
//     GET /timetable/week?date=YYYY-MM-DD.
//   - GET /friends, POST /friends {"email"}, DELETE /friends/{uid},
//     GET /friends/roster, GET /friends/{uid}/timetable.
//
// Errors are rendered as {"error_code","message","errors"} with Traditional
// Chinese messages. Request/response DTOs live alongside their handlers.
package http
