// Package logctx hands every component a component-scoped logrus entry.
package logctx

import "github.com/sirupsen/logrus"

var root = logrus.StandardLogger()

// SetLogger replaces the root logger used to derive component entries.
// Nodes call this once at startup with a logger configured from
// config.Logging.
func SetLogger(lg *logrus.Logger) {
	if lg != nil {
		root = lg
	}
}

// For returns a logger entry tagged with component=name.
func For(name string) *logrus.Entry {
	return root.WithField("component", name)
}
