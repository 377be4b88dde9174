// Package interceptors holds the unary server interceptors shared by the
// court and token services.
package interceptors
