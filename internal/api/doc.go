// package api resolves download-server endpoint URLs and performs one-shot
// REST fetches.
//
// Resolver functions are pure: the same resource, filters, and pagination
// always produce the same URL string, so callers may compare URLs to decide
// whether a stream must be reopened. The REST client serves both initial
// non-stream loads and the fallback fetch when a stream errors.
package api
