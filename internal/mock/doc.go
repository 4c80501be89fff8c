// Package mock provides function-field implementations of the comic
// interfaces for tests.
package mock
