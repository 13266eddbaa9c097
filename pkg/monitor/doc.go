// Package monitor polls a sandbox's cgroup and stdout pipe to detect
// CPU, memory, output, or wall-time exhaustion. The polling loop is
// one tagged state machine that owns three sub-monitors and returns
// the first reason to trip; it never kills the process itself, only
// reports.
package monitor
