// Package omdb is a client for the OMDb API, the authoritative source for
// series metadata and per-season episode lists.
//
// Requests go through the API-class throttle of a fetch.Doer. OMDb answers
// 200 even for unknown ids, so "Response": "False" payloads are mapped to
// services.ErrNotFound.
package omdb
