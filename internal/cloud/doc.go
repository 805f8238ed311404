// Package cloud is the REST path for controlling lights through the
// vendor's public HTTP API.
//
// It is intentionally thin: a bearer-token client, a retry loop with
// exponential backoff for transient failures, and wrappers for the
// handful of endpoints the CLI uses (lights, state changes, toggle,
// scenes). Anything requiring immediacy or working offline belongs on
// the LAN path instead.
//
// # Authentication
//
// Every request carries the personal access token from the local
// configuration as an Authorization bearer header. A rejected token
// surfaces as an auth error and is never retried.
//
// # Error Handling
//
// Failures are APIError values categorized as network, auth, HTTP,
// rate-limit or parse errors. Network errors, HTTP 5xx and rate-limit
// rejections are retryable; auth and client errors fail fast.
//
// # Usage
//
//	client := cloud.NewClient(token)
//	lights, err := client.ListLights("group:Office")
//	if err != nil {
//	    if cloud.IsAuthError(err) {
//	        // prompt for a new token
//	    }
//	    return err
//	}
package cloud
