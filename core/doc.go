// Package core defines the shared domain model of the family simulator:
// user profiles, derived family structures, persona records, emotion states,
// conversation turns and the session container. It also carries the error
// taxonomy used across packages. Core holds no I/O; persistence lives in the
// session package and orchestration in dispatch.
package core
