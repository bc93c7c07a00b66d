// Package study runs study sessions: it builds a queue with the srs selector,
// records answers one card at a time and saves the session after every answer.
package study
