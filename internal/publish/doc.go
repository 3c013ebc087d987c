// Package publish runs the release: guard, compile, dist, package diff, npm
// publish and tag push, each stage gating the next.
package publish
