// Package intent classifies free-text chat messages into structured actions.
//
// The completion service does all of the language work. This package builds
// the role-specific instruction prompt, anchors it on the caller's timezone
// and current time, and then treats the reply as untrusted input: the reply
// either decodes into one complete, valid models.Action or the call fails
// with a *Failure. Nothing partially decoded ever leaves the package.
package intent
