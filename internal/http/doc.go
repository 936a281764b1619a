// Package http exposes the job tracker over a JSON API.
//
// Public endpoints:
//   - POST /api/auth/register: body {"username","email","password","full_name"}.
//     Returns 201 with the created user.
//   - POST /api/auth/login: body {"login","password"}. Returns
//     {"token","expires_at","user"}; the token is also surfaced via the
//     `X-Session-Token` header and a signed session cookie.
//   - GET /healthz and GET /metrics (Prometheus text format).
//
// Every other route requires `Authorization: Bearer <token>` or the session
// cookie and answers 401 {"error_code":"AUTH_REQUIRED"} otherwise:
//   - POST /api/auth/logout, GET /api/auth/me, PUT /api/auth/password
//   - GET|POST /api/seasons, GET /api/seasons/active, POST /api/seasons/end,
//     GET|DELETE /api/seasons/{id}
//   - GET|POST /api/jobs, GET /api/jobs/search?q=, GET /api/jobs/filter?status=,
//     GET|PUT|DELETE /api/jobs/{id}, PUT /api/jobs/{id}/status
//   - GET /api/statistics, GET /api/job-statuses
//
// List, search, filter and statistics endpoints accept an optional season_id
// query parameter; without it they use the caller's active season.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
