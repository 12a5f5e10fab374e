// Package fetch retrieves media for one request inside a private scratch
// workspace, trying a primary then a fallback strategy, and always removes
// the workspace before returning.
package fetch
