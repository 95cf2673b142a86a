// Package web traces fiber handlers layer by layer. Handlers registered
// through Router become router, middleware or request handler spans under
// the request span opened by Instrumentation.Middleware, and the route they
// assemble names that request span.
package web
