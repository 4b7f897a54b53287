// Package api wires the console HTTP surface: session lifecycle endpoints,
// the guarded screen route table and the tenant provisioning proxy.
//
// Route layout:
//
//	/auth/*            session lifecycle, never guarded
//	/login             tenant admin sign-in page
//	/super-login       platform operator sign-in page
//	/, /agents/...     tenant admin screens
//	/admin, /admin/... platform operator screens
//
// Screen routes pass through the guard middleware, which turns the current
// resolution state into allow/redirect/loading/degraded outcomes before any
// handler runs.
package api
