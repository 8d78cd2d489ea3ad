// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing console output to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (InfoKV, WarnKV, etc.).
//
// Services accept a context and extract the logger from it, so every
// message carries the name of the stage that produced it.
package logger
