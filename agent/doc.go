// Package agent runs the attempt loop that drives a conversation to a
// stopping point.
//
// A Runner owns one run: it authorizes the request, starts model sessions
// through a SessionStarter, forwards every fragment the sessions emit and
// inspects assistant text for stop markers. When a session ends without a
// marker and without an error the runner starts the next attempt against
// the same conversation, so tool results recorded by the previous attempt
// become model input. The loop stops on a marker, on any error, or when
// the attempt limit trips.
package agent
