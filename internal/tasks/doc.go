// Package tasks holds the bot's scheduled workflows. Each workflow is a
// struct whose Run method is registered with the scheduler; collaborators are
// narrow interfaces so tests can substitute fakes.
package tasks
