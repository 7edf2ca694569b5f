//go:build tinygo

package framework

// glog needs os/user and log files, neither exists on the device.
func vlogf(level int, format string, args ...interface{}) {}
