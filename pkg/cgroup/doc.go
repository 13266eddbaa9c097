// Package cgroup creates and tears down the per-sandbox cgroup that
// bounds one jailed process's CPU and memory. A single Cgroup
// interface hides the v1/v2 dialect split behind Controller.Create;
// callers never branch on which backend is active.
package cgroup
