// Package uniuri generates cryptographically secure random strings
// used as session tokens, verification tokens and oauth state values.
package uniuri
