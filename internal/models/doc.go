// package models defines the data model shared between the download server's
// REST API and its event streams.
//
// Every streamed payload is a full-replace snapshot: a message overwrites the
// entire relevant object, never a partial patch.
package models
