// Package httpapi exposes the credential engine over HTTP with echo.
//
// Routes:
//
//	POST /auth/register   201 {data: {user, expiresIn}}
//	POST /auth/login      200 {data: {accessToken, refreshToken, tokenType, expiresIn, user}}
//	POST /auth/refresh    200 {data: {accessToken, refreshToken, tokenType, expiresIn}}
//	POST /auth/logout     200, bearer required
//	GET  /auth/profile    200 {data: user}, bearer required
//
// Errors use the httpx.APIError body. Credential and authentication failures all
// answer 401 UNAUTHORIZED with one message; backend outages answer 503.
package httpapi
