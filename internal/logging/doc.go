// Package logging provides the zap-backed logger used across cellomold.
//
// Commands log progress to stderr so stdout stays reserved for reports
// (text, JSON or YAML). The default level is info; --verbose lowers it to
// debug.
//
// Logger is an interface over *zap.SugaredLogger. New builds the console
// logger used by the CLI; Test and TestObserved build loggers for tests,
// the latter recording entries so assertions can inspect them.
package logging
