// Package preflight provides readiness checks for the binaries and
// filesystem paths regift depends on.
//
// "regift status" renders every Result; "regift serve" refuses to start when
// a required check fails.
package preflight
