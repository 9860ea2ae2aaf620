// Package testutil contains helper fakes and utilities used across tests to
// reduce boilerplate when exercising the lifecycle controller and registry
// (scriptable communicator, call recording). These helpers are intentionally
// minimal and avoid adding third-party dependencies. They are not intended
// for production usage.
package testutil
