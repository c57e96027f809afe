// Package newsblur implements driven.API over the NewsBlur HTTP API.
//
// Requests are throttled with a token bucket and authenticated either with
// the session cookie returned by Login or with an OAuth bearer token. HTTP
// 401 and 403 map onto domain.ErrUnauthenticated for story listings, and onto
// unauthenticated responses for the folder mapping and action calls, so the
// sync phases can tell a logged-out session from a broken network.
package newsblur
