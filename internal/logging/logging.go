// Package logging wires glog into the command line of rtutool.
package logging

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

// BindFlags adds glog's flags (-v, -logtostderr, -log_dir, ...) to fs.
// glog registers them on the standard flag set at init.
func BindFlags(fs *pflag.FlagSet) {
	fs.AddGoFlagSet(flag.CommandLine)
}

// Init marks the standard flag set as parsed so glog stops warning about
// logging before flag.Parse. Call it once the command line has been parsed
// by cobra.
func Init() {
	if !flag.Parsed() {
		_ = flag.CommandLine.Parse(nil)
	}
}

// Flush writes pending log entries.
func Flush() {
	glog.Flush()
}
