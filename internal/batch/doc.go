// Package batch groups readings so that several of them share one insert
// request.
package batch
