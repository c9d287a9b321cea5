// Package http implements the reference document server over HTTP.
//
// It serves the wire protocol spoken by the client remote gateway: find as
// GET {collection}, POST {collection}/find and POST {collection}/quickfind,
// inserts as POST {collection}, merges as PATCH {collection} and deletes as
// DELETE {collection}/{id}. Tracing, access logging, request metrics and
// client token checks are handled here before requests reach the service
// layer.
package http
