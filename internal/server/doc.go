// package server implements the mock download server behind `vdx mock`.
//
// It serves the REST endpoints and event streams vdx consumes, backed by
// synthetic data that advances on a timer, including the idle-timeout
// sentinel behavior of the real server. Useful for demos and for exercising
// the dashboard without a download server around. It is not the production
// server.
package server
