// Package storage is the persistent key-value adapter standing in for the
// browser's local storage: it keeps the session token, the active cart
// handle, and the geo-lookup cache across process restarts, each under a
// fixed key.
package storage
