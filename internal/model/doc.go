// Package model defines domain data structures shared across the bot: the
// per-conversation download request, probe and download results, quality
// tiers, usage statistics and the request state machine.
package model
