// Package middleware adapts a goGate.Engine to net/http.
//
//   - [RateLimit] throttles a route against one endpoint policy and
//     answers 429 with Retry-After when the window is spent.
//   - [RequireMFA] admits only requests bearing a valid MFA assertion.
//
// Decisions are delegated to the Engine; this package only translates
// HTTP semantics.
package middleware
