/*
Package undoworker runs a fixed pool of goroutines that pull requests off an
undo.Manager and execute them.

Each worker loops on Manager.Next, invokes the caller-supplied UndoFunc, and
reports the outcome back to the manager: Unregister on success, Reschedule
on failure. The pool does not know how to actually undo a transaction; that
is always the embedding's job, standing in for the storage engine's own
undo-execution code.
*/
package undoworker
