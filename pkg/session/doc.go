/*
Package session serializes document edits.

A Manager runs the load, edit and save cycle for one document at a time:
calls for the same document id queue on an in-process mutex and, when a
ports.DistributedLocker is configured, on a lock shared by every replica.
*/
package session
