// Package devices exposes Thorlabs APT controllers as typed Go objects.
//
// Device carries the operations common to all APT motor controllers:
// identification, homing, absolute moves, channel enable state, hardware
// information and status updates. Model-specific types such as KDC101 wrap a
// Device with the unit conversions for their stage. Manager opens controllers
// by serial number and hands out one shared Device per controller.
package devices
