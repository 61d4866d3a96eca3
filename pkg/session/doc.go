// Package session holds the client's authentication state and mirrors the
// logged-in user into on-device storage.
//
// State is {User, Loading}. It changes only through four actions:
//
//	Login(u)       User=u, Loading=false, then write u to storage
//	Logout()       User=nil, Loading=false, then remove the stored copy
//	SetUser(u)     User=u, Loading=false
//	SetLoading(b)  Loading=b
//
// Reduce is the pure transition function. It returns the next state and the
// storage Effect the action asks for. A Store applies the state change
// synchronously and hands the effect to a single background worker, so
// Dispatch never waits on I/O. The worker runs effects in dispatch order,
// which makes the stored value follow the last login or logout dispatched.
// Storage failures are logged and never reach the caller.
//
// At process start, LoadUser reads the stored copy (key "userInfo" by
// default) and ends the loading window whether or not a user was found.
package session
