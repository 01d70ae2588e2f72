// package repositories provides the local sqlite cache: persisted settings
// (notably the API-origin override) and last-known snapshots of server
// resources for offline display.
package repositories
