// ABOUTME: Channel mapping package
// ABOUTME: Assigns laser signal meaning to each PCM channel
// Package channel describes what each PCM channel of a laser audio stream
// carries.
//
// A mapping is written as one character per channel:
//
//	x  X-axis            X  X-axis mirrored
//	y  Y-axis            Y  Y-axis mirrored
//	r  red intensity     g  green intensity     b  blue intensity
//	l  blanking signal   1  always high         0  always low
//	_  silence (ignored when decoding)
//
// For example "xy" drives a stereo output with the axes only, and "__l_xy"
// puts the axes on the rear channels of a 5.1 output with blanking on the
// center channel.
package channel
