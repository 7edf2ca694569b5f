//go:build !tinygo

package framework

import "github.com/golang/glog"

func vlogf(level glog.Level, format string, args ...interface{}) {
	glog.V(level).Infof(format, args...)
}
