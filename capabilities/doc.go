// Package capabilities ships the standard capability set: signal tags that
// stop a run, planning over conversation artifacts, nested chat
// completions, and thin sandbox wrappers for shell, python, media
// extraction, charting and browser automation.
//
// Every capability here stays deliberately shallow. It marshals arguments,
// makes one sandbox or collaborator call, records what it did and returns
// a uniform Result. Anything smarter lives behind the sandbox boundary.
package capabilities
